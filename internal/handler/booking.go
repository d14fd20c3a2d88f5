package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditory-booking/internal/model"
	"github.com/iliyamo/auditory-booking/internal/service"
)

// BookingService is the booking lifecycle used by BookingHandler.  It is
// implemented by *service.BookingService.
type BookingService interface {
	Create(ctx context.Context, req model.CreateBookingRequest) (*model.BookingDetail, error)
	Update(ctx context.Context, id string, p model.BookingPatch) (*model.BookingDetail, error)
	Get(ctx context.Context, id string) (*model.BookingDetail, error)
	List(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error)
	Delete(ctx context.Context, id string) error
}

var _ BookingService = (*service.BookingService)(nil)

// BookingHandler serves /bookings.
type BookingHandler struct {
	Service BookingService
}

// NewBookingHandler panics if svc is nil.
func NewBookingHandler(svc BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Service: svc}
}

// List handles GET /bookings?auditoryId=&deviceId=&active=.
func (h *BookingHandler) List(c echo.Context) error {
	f := model.BookingFilter{
		AuditoryID: strings.TrimSpace(c.QueryParam("auditoryId")),
		DeviceID:   strings.TrimSpace(c.QueryParam("deviceId")),
	}
	if raw := strings.TrimSpace(c.QueryParam("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return &service.ValidationError{Fields: []service.FieldError{{Field: "active", Message: "must be true or false"}}}
		}
		f.Active = model.Some(active)
	}
	items, err := h.Service.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	d, err := h.Service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Create handles POST /bookings.  The booking starts now and lasts until
// endTime; the auditory must be free.
func (h *BookingHandler) Create(c echo.Context) error {
	var req model.CreateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	d, err := h.Service.Create(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

// Update handles PUT /bookings/:id.
func (h *BookingHandler) Update(c echo.Context) error {
	var p model.BookingPatch
	if err := bindAndValidate(c, &p); err != nil {
		return err
	}
	d, err := h.Service.Update(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Delete handles DELETE /bookings/:id.
func (h *BookingHandler) Delete(c echo.Context) error {
	if err := h.Service.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
