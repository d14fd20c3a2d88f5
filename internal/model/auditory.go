package model

// Auditory is a bookable room with a seating capacity.  It corresponds to a
// row in the `auditories` table.
//
// Fields:
//
//	ID        opaque identifier (UUID string)
//	Name      non-empty display name, e.g. "Room 101"
//	Capacity  number of seats, at least 1
type Auditory struct {
	ID       string `json:"id"`       // auditories.id
	Name     string `json:"name"`     // auditories.name
	Capacity int    `json:"capacity"` // auditories.capacity
}

// CreateAuditoryRequest is the body of POST /auditories.
type CreateAuditoryRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Capacity int    `json:"capacity" validate:"required,min=1"`
}

// AuditoryPatch is the body of PUT /auditories/:id.
type AuditoryPatch struct {
	Name     Optional[string] `json:"name" validate:"omitempty,min=1,max=255"`
	Capacity Optional[int]    `json:"capacity" validate:"omitempty,min=1"`
}

// Empty reports whether the patch changes nothing.
func (p AuditoryPatch) Empty() bool { return !p.Name.Set && !p.Capacity.Set }
