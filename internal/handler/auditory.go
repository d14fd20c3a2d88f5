package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditory-booking/internal/model"
)

// AuditoryStore is the auditory persistence used by AuditoryHandler.
type AuditoryStore interface {
	Create(ctx context.Context, a *model.Auditory) error
	GetByID(ctx context.Context, id string) (*model.Auditory, error)
	ListAll(ctx context.Context) ([]model.Auditory, error)
	Update(ctx context.Context, id string, p model.AuditoryPatch) (*model.Auditory, error)
	Delete(ctx context.Context, id string) error
}

// AvailabilityReader computes the current occupancy of auditories.
type AvailabilityReader interface {
	Availability(ctx context.Context, auditories []model.Auditory) ([]model.AuditoryAvailability, error)
}

// AuditoryHandler serves /auditories.
type AuditoryHandler struct {
	Repo     AuditoryStore
	Bookings AvailabilityReader
}

// NewAuditoryHandler panics if a dependency is nil.
func NewAuditoryHandler(repo AuditoryStore, bookings AvailabilityReader) *AuditoryHandler {
	if repo == nil || bookings == nil {
		panic("nil dependency passed to NewAuditoryHandler")
	}
	return &AuditoryHandler{Repo: repo, Bookings: bookings}
}

// List handles GET /auditories.
func (h *AuditoryHandler) List(c echo.Context) error {
	items, err := h.Repo.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Availability handles GET /auditories/availability: every auditory with
// busy and busyUntil computed at request time.
func (h *AuditoryHandler) Availability(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := h.Repo.ListAll(ctx)
	if err != nil {
		return err
	}
	out, err := h.Bookings.Availability(ctx, items)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /auditories/:id.
func (h *AuditoryHandler) Get(c echo.Context) error {
	a, err := h.Repo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Create handles POST /auditories.
func (h *AuditoryHandler) Create(c echo.Context) error {
	var req model.CreateAuditoryRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := c.Validate(&req); err != nil {
		return err
	}
	a := &model.Auditory{Name: req.Name, Capacity: req.Capacity}
	if err := h.Repo.Create(c.Request().Context(), a); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

// Update handles PUT /auditories/:id.
func (h *AuditoryHandler) Update(c echo.Context) error {
	var p model.AuditoryPatch
	if err := c.Bind(&p); err != nil {
		return bindError(err)
	}
	p.Name = trimOptional(p.Name)
	if err := c.Validate(&p); err != nil {
		return err
	}
	a, err := h.Repo.Update(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// Delete handles DELETE /auditories/:id.  Bookings referencing the auditory
// are kept and show it as null.
func (h *AuditoryHandler) Delete(c echo.Context) error {
	if err := h.Repo.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
