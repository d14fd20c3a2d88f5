package model

import "time"

// Booking reserves an auditory together with a device until EndTime.  A
// booking is active while EndTime is strictly after the current instant;
// expiry is never stored.  It corresponds to a row in the `bookings` table.
//
// Fields:
//
//	ID          opaque identifier (UUID string)
//	DeviceID    referenced device (not owned, may dangle after a delete)
//	AuditoryID  referenced auditory (not owned, may dangle after a delete)
//	StartTime   creation instant; never changes afterwards
//	EndTime     end of the reservation; always after StartTime
type Booking struct {
	ID         string    `json:"id"`         // bookings.id
	DeviceID   string    `json:"deviceId"`   // bookings.device_id
	AuditoryID string    `json:"auditoryId"` // bookings.auditory_id
	StartTime  time.Time `json:"startTime"`  // bookings.start_time
	EndTime    time.Time `json:"endTime"`    // bookings.end_time
}

// ActiveAt reports whether the booking still occupies its auditory at now.
// A booking ending exactly at now is not active.
func (b Booking) ActiveAt(now time.Time) bool {
	return b.EndTime.After(now)
}

// BookingDetail is a booking joined with the records it references.  Device
// or Auditory is nil when the referenced row has been deleted.
type BookingDetail struct {
	Booking
	Device   *Device   `json:"device"`
	Auditory *Auditory `json:"auditory"`
}

// CreateBookingRequest is the body of POST /bookings.  EndTime is an ISO-8601
// timestamp parsed by the booking service.
type CreateBookingRequest struct {
	DeviceID   string `json:"deviceId" validate:"required,min=1"`
	AuditoryID string `json:"auditoryId" validate:"required,min=1"`
	EndTime    string `json:"endTime" validate:"required,min=1"`
}

// BookingPatch is the body of PUT /bookings/:id.  StartTime is deliberately
// absent: it cannot be changed.
type BookingPatch struct {
	DeviceID   Optional[string] `json:"deviceId" validate:"omitempty,min=1"`
	AuditoryID Optional[string] `json:"auditoryId" validate:"omitempty,min=1"`
	EndTime    Optional[string] `json:"endTime" validate:"omitempty,min=1"`
}

// BookingFilter narrows a booking listing.  Empty fields do not filter.
type BookingFilter struct {
	AuditoryID string
	DeviceID   string
	// Active selects bookings active (true) or expired (false) at Now.
	Active Optional[bool]
	Now    time.Time
}
