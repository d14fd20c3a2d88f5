package model

import "time"

// AuditoryAvailability is the derived occupancy of an auditory at a given
// instant.  It is computed on read and never persisted.
type AuditoryAvailability struct {
	Auditory  Auditory   `json:"auditory"`
	Busy      bool       `json:"busy"`
	BusyUntil *time.Time `json:"busyUntil,omitempty"`
	BookingID string     `json:"bookingId,omitempty"`
}

// Availability computes the occupancy of every auditory at now from the given
// bookings.  Bookings for unknown auditories are ignored.  Should more than
// one active booking exist for an auditory, the latest end time wins.
func Availability(now time.Time, auditories []Auditory, bookings []Booking) []AuditoryAvailability {
	active := make(map[string]Booking, len(auditories))
	for _, b := range bookings {
		if !b.ActiveAt(now) {
			continue
		}
		if cur, ok := active[b.AuditoryID]; !ok || b.EndTime.After(cur.EndTime) {
			active[b.AuditoryID] = b
		}
	}
	out := make([]AuditoryAvailability, 0, len(auditories))
	for _, a := range auditories {
		item := AuditoryAvailability{Auditory: a}
		if b, ok := active[a.ID]; ok {
			until := b.EndTime
			item.Busy = true
			item.BusyUntil = &until
			item.BookingID = b.ID
		}
		out = append(out, item)
	}
	return out
}
