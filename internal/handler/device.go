package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auditory-booking/internal/model"
)

// DeviceStore is the device persistence used by DeviceHandler.
type DeviceStore interface {
	Create(ctx context.Context, d *model.Device) error
	GetByID(ctx context.Context, id string) (*model.Device, error)
	ListAll(ctx context.Context) ([]model.Device, error)
	Update(ctx context.Context, id string, p model.DevicePatch) (*model.Device, error)
	Delete(ctx context.Context, id string) error
}

// DeviceHandler serves /devices.
type DeviceHandler struct {
	Repo DeviceStore
}

// NewDeviceHandler panics if repo is nil.
func NewDeviceHandler(repo DeviceStore) *DeviceHandler {
	if repo == nil {
		panic("nil repository passed to NewDeviceHandler")
	}
	return &DeviceHandler{Repo: repo}
}

// List handles GET /devices.
func (h *DeviceHandler) List(c echo.Context) error {
	items, err := h.Repo.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Get handles GET /devices/:id.
func (h *DeviceHandler) Get(c echo.Context) error {
	d, err := h.Repo.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Create handles POST /devices.
func (h *DeviceHandler) Create(c echo.Context) error {
	var req model.CreateDeviceRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}
	req.Name = strings.TrimSpace(req.Name) // names are stored trimmed
	if err := c.Validate(&req); err != nil {
		return err
	}
	d := &model.Device{Name: req.Name}
	if err := h.Repo.Create(c.Request().Context(), d); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

// Update handles PUT /devices/:id.  Absent fields stay unchanged.
func (h *DeviceHandler) Update(c echo.Context) error {
	var p model.DevicePatch
	if err := c.Bind(&p); err != nil {
		return bindError(err)
	}
	p.Name = trimOptional(p.Name)
	if err := c.Validate(&p); err != nil {
		return err
	}
	d, err := h.Repo.Update(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Delete handles DELETE /devices/:id.
func (h *DeviceHandler) Delete(c echo.Context) error {
	if err := h.Repo.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func trimOptional(o model.Optional[string]) model.Optional[string] {
	if o.Set {
		o.Value = strings.TrimSpace(o.Value)
	}
	return o
}
