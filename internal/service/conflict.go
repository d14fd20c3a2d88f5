package service

import (
	"context"
	"time"

	"github.com/iliyamo/auditory-booking/internal/model"
)

// ActiveBookingFinder looks up an active booking on an auditory.  It is
// satisfied by repository.BookingTx.
type ActiveBookingFinder interface {
	FindActiveBooking(ctx context.Context, auditoryID string, now time.Time, excludeID string) (*model.Booking, error)
}

// FindConflict returns the booking that keeps auditoryID busy at now,
// ignoring excludeID (the booking being updated).  It returns nil when the
// auditory is free.  A booking ending exactly at now does not conflict.
func FindConflict(ctx context.Context, f ActiveBookingFinder, auditoryID string, now time.Time, excludeID string) (*model.Booking, error) {
	b, err := f.FindActiveBooking(ctx, auditoryID, now, excludeID)
	if err != nil {
		return nil, err
	}
	if b == nil || !b.ActiveAt(now) || (excludeID != "" && b.ID == excludeID) {
		return nil, nil
	}
	return b, nil
}

// HasConflict reports whether auditoryID has an active booking other than
// excludeID.
func HasConflict(ctx context.Context, f ActiveBookingFinder, auditoryID string, now time.Time, excludeID string) (bool, error) {
	b, err := FindConflict(ctx, f, auditoryID, now, excludeID)
	return b != nil, err
}
