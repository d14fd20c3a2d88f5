package service

import (
	"fmt"
	"strings"
	"time"
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports a malformed request: a missing field, an empty
// string or an unparseable timestamp.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// invalidField is shorthand for a single-field ValidationError.
func invalidField(field, msg string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: msg}}}
}

// TemporalError is returned when a requested end time is not after now.
type TemporalError struct {
	EndTime time.Time
	Now     time.Time
}

func (e *TemporalError) Error() string { return "end time must be in the future" }

// ConflictError is returned when the auditory already has an active booking.
// BusyUntil is the end time of that booking.
type ConflictError struct {
	AuditoryID string
	BookingID  string
	BusyUntil  time.Time
	Location   *time.Location
}

func (e *ConflictError) Error() string {
	loc := e.Location
	if loc == nil {
		loc = time.UTC
	}
	return "auditory is booked until " + e.BusyUntil.In(loc).Format(time.TimeOnly)
}

// NotFoundError is returned when a booking, or a device or auditory referenced
// by a booking request, does not exist.  Err is the repository sentinel.
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s not found", e.Resource) }

func (e *NotFoundError) Unwrap() error { return e.Err }
