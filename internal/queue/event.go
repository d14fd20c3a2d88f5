// Package queue defines the booking lifecycle events exchanged over the
// message broker and the consumer that turns them into the raw booking log.
package queue

import (
	"time"

	"github.com/iliyamo/auditory-booking/internal/model"
)

// Event types carried in BookingEvent.Type.
const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
)

// BookingEvent is published after a booking change has been committed.  It
// carries enough of the joined booking for the log consumer to write a
// readable line without querying the database.
type BookingEvent struct {
	Type         string    `json:"type"`
	BookingID    string    `json:"bookingId"`
	DeviceID     string    `json:"deviceId"`
	DeviceName   string    `json:"deviceName,omitempty"`
	AuditoryID   string    `json:"auditoryId"`
	AuditoryName string    `json:"auditoryName,omitempty"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	OccurredAt   time.Time `json:"occurredAt"`
}

// NewBookingEvent builds an event of the given type from a joined booking.
func NewBookingEvent(eventType string, d *model.BookingDetail, at time.Time) BookingEvent {
	ev := BookingEvent{
		Type:       eventType,
		BookingID:  d.ID,
		DeviceID:   d.DeviceID,
		AuditoryID: d.AuditoryID,
		StartTime:  d.StartTime.UTC(),
		EndTime:    d.EndTime.UTC(),
		OccurredAt: at.UTC(),
	}
	if d.Device != nil {
		ev.DeviceName = d.Device.Name
	}
	if d.Auditory != nil {
		ev.AuditoryName = d.Auditory.Name
	}
	return ev
}
