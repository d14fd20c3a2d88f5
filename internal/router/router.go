// Package router wires handlers and middleware into an echo instance.
package router

import (
	"slices"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/auditory-booking/internal/handler"
	"github.com/iliyamo/auditory-booking/internal/middleware"
)

// Handlers groups the resource handlers served by the API.
type Handlers struct {
	Devices    *handler.DeviceHandler
	Auditories *handler.AuditoryHandler
	Bookings   *handler.BookingHandler
}

// Options configures the server-wide middleware chain.  Nil middleware
// fields are skipped.
type Options struct {
	Logger      *zap.Logger
	CORSOrigins []string
	RateLimit   echo.MiddlewareFunc // applied to every request
	Cache       echo.MiddlewareFunc // applied to the lists named in CacheLists
	CacheLists  []string            // "devices", "auditories"
	Invalidate  echo.MiddlewareFunc // applied to write routes
}

// listMiddleware returns the middleware for the list route of resource.
func (o Options) listMiddleware(resource string) []echo.MiddlewareFunc {
	if o.Cache == nil || !slices.Contains(o.CacheLists, resource) {
		return nil
	}
	return []echo.MiddlewareFunc{o.Cache}
}

// New returns an echo instance with the validator, the error handler and the
// global middleware installed: recover, request id, request logging, CORS,
// secure headers and the rate limiter, in that order.
func New(opts Options) *echo.Echo {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = handler.ErrorHandler(log)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: origins}))
	e.Use(echomw.Secure())
	if opts.RateLimit != nil {
		e.Use(opts.RateLimit)
	}
	return e
}

// RegisterRoutes mounts the API under prefix ("" for the root).  Health
// checks are always served at both /health and /healthz under the prefix.
func RegisterRoutes(e *echo.Echo, prefix string, h Handlers, opts Options) {
	g := e.Group(prefix)
	g.GET("/health", handler.Health)
	g.GET("/healthz", handler.Health)

	var write []echo.MiddlewareFunc
	if opts.Invalidate != nil {
		write = append(write, opts.Invalidate)
	}

	d := g.Group("/devices")
	d.GET("", h.Devices.List, opts.listMiddleware("devices")...)
	d.GET("/:id", h.Devices.Get)
	d.POST("", h.Devices.Create, write...)
	d.PUT("/:id", h.Devices.Update, write...)
	d.DELETE("/:id", h.Devices.Delete, write...)

	// Availability depends on the current instant and is never cached.
	a := g.Group("/auditories")
	a.GET("", h.Auditories.List, opts.listMiddleware("auditories")...)
	a.GET("/availability", h.Auditories.Availability)
	a.GET("/:id", h.Auditories.Get)
	a.POST("", h.Auditories.Create, write...)
	a.PUT("/:id", h.Auditories.Update, write...)
	a.DELETE("/:id", h.Auditories.Delete, write...)

	b := g.Group("/bookings")
	b.GET("", h.Bookings.List) // ?active= depends on now
	b.GET("/:id", h.Bookings.Get)
	b.POST("", h.Bookings.Create, write...)
	b.PUT("/:id", h.Bookings.Update, write...)
	b.DELETE("/:id", h.Bookings.Delete, write...)
}
