// Package handler contains the HTTP handlers of the booking API and the
// error handler that turns domain errors into {"detail": ...} responses.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/auditory-booking/internal/repository"
	"github.com/iliyamo/auditory-booking/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string               `json:"detail"`
	Errors []service.FieldError `json:"errors,omitempty"`
}

// ErrorHandler returns an echo.HTTPErrorHandler mapping domain errors to
// status codes.  Anything unrecognised is logged and answered with 500.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, body := errorResponse(err)
		if status >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.Error(err))
		}
		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, body)
		}
		if werr != nil {
			log.Warn("write error response", zap.Error(werr))
		}
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var (
		ve *service.ValidationError
		te *service.TemporalError
		nf *service.NotFoundError
		ce *service.ConflictError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ErrorResponse{Detail: "validation failed", Errors: ve.Fields}
	case errors.As(err, &te):
		return http.StatusBadRequest, ErrorResponse{Detail: te.Error()}
	case errors.As(err, &nf):
		return http.StatusNotFound, ErrorResponse{Detail: nf.Error()}
	case errors.Is(err, repository.ErrDeviceNotFound):
		return http.StatusNotFound, ErrorResponse{Detail: "device not found"}
	case errors.Is(err, repository.ErrAuditoryNotFound):
		return http.StatusNotFound, ErrorResponse{Detail: "auditory not found"}
	case errors.Is(err, repository.ErrBookingNotFound):
		return http.StatusNotFound, ErrorResponse{Detail: "booking not found"}
	case errors.As(err, &ce):
		return http.StatusConflict, ErrorResponse{Detail: ce.Error()}
	case errors.As(err, &he):
		if he.Code >= http.StatusInternalServerError {
			return he.Code, ErrorResponse{Detail: "internal error"}
		}
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, ErrorResponse{Detail: msg}
	}
	return http.StatusInternalServerError, ErrorResponse{Detail: "internal error"}
}
