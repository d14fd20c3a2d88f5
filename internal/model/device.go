package model

// Device is a piece of bookable equipment (projector, laptop, ...).  It
// corresponds to a row in the `devices` table.
//
// Fields:
//
//	ID    opaque identifier (UUID string)
//	Name  non-empty display name
type Device struct {
	ID   string `json:"id"`   // devices.id
	Name string `json:"name"` // devices.name
}

// CreateDeviceRequest is the body of POST /devices.
type CreateDeviceRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// DevicePatch is the body of PUT /devices/:id.  Only supplied fields change.
type DevicePatch struct {
	Name Optional[string] `json:"name" validate:"omitempty,min=1,max=255"`
}

// Empty reports whether the patch changes nothing.
func (p DevicePatch) Empty() bool { return !p.Name.Set }
