// Package service holds the booking lifecycle: validation of times, the
// one-active-booking-per-auditory rule and publishing of booking events.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/auditory-booking/internal/model"
	"github.com/iliyamo/auditory-booking/internal/queue"
	"github.com/iliyamo/auditory-booking/internal/repository"
)

// defaultPublishTimeout bounds event delivery, which runs after the
// request's transaction has committed.
const defaultPublishTimeout = 5 * time.Second

// BookingService creates, updates and deletes bookings.  Every mutation runs
// inside one store transaction so the conflict check and the write are
// atomic with respect to other bookings on the same auditory.
type BookingService struct {
	store     repository.BookingStore
	publisher EventPublisher
	log       *zap.Logger
	now       func() time.Time
	zone      *time.Location
	timeout   time.Duration
}

// Option configures a BookingService.
type Option func(*BookingService)

// WithClock replaces time.Now.  Tests use it to move time forward.
func WithClock(now func() time.Time) Option {
	return func(s *BookingService) { s.now = now }
}

// WithDisplayZone sets the zone used to render times in conflict messages.
func WithDisplayZone(loc *time.Location) Option {
	return func(s *BookingService) {
		if loc != nil {
			s.zone = loc
		}
	}
}

// WithPublishTimeout bounds how long a committed change waits for its event
// to reach the broker.
func WithPublishTimeout(d time.Duration) Option {
	return func(s *BookingService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithPublisher sets the destination of booking events.
func WithPublisher(p EventPublisher) Option {
	return func(s *BookingService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// NewBookingService returns a service over store.  Without options it uses
// the wall clock, UTC and a NopPublisher.
func NewBookingService(store repository.BookingStore, log *zap.Logger, opts ...Option) *BookingService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &BookingService{
		store:     store,
		publisher: NopPublisher{},
		log:       log,
		now:       time.Now,
		zone:      time.UTC,
		timeout:   defaultPublishTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now returns the service's current instant at the precision bookings are
// stored with.
func (s *BookingService) Now() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create books an auditory with a device from now until req.EndTime.
//
// Errors: *ValidationError for an unparseable end time, *TemporalError when
// the end time is not in the future, *NotFoundError for an unknown device or
// auditory and *ConflictError when the auditory is already booked.
func (s *BookingService) Create(ctx context.Context, req model.CreateBookingRequest) (*model.BookingDetail, error) {
	end, err := ParseEndTime(req.EndTime)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	if !end.After(now) {
		return nil, &TemporalError{EndTime: end, Now: now}
	}

	var detail *model.BookingDetail
	err = s.store.InTx(ctx, func(tx repository.BookingTx) error {
		if _, err := tx.LockAuditory(ctx, req.AuditoryID); err != nil {
			return notFound(err, "auditory", req.AuditoryID)
		}
		if _, err := tx.GetDevice(ctx, req.DeviceID); err != nil {
			return notFound(err, "device", req.DeviceID)
		}
		if err := s.checkConflict(ctx, tx, req.AuditoryID, now, ""); err != nil {
			return err
		}
		b := &model.Booking{
			DeviceID:   req.DeviceID,
			AuditoryID: req.AuditoryID,
			StartTime:  now,
			EndTime:    end,
		}
		if err := tx.InsertBooking(ctx, b); err != nil {
			return err
		}
		detail, err = tx.GetBookingDetail(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking created",
		zap.String("booking_id", detail.ID),
		zap.String("auditory_id", detail.AuditoryID),
		zap.String("device_id", detail.DeviceID),
		zap.Time("end_time", detail.EndTime))
	s.publish(ctx, queue.EventBookingCreated, detail)
	return detail, nil
}

// Update applies the supplied fields of p to booking id.  The conflict check
// is repeated only when the auditory or the end time changes; a device-only
// change keeps the booking's slot as is.  StartTime never changes.
func (s *BookingService) Update(ctx context.Context, id string, p model.BookingPatch) (*model.BookingDetail, error) {
	var end time.Time
	if raw, ok := p.EndTime.Get(); ok {
		t, err := ParseEndTime(raw)
		if err != nil {
			return nil, err
		}
		end = t
	}
	now := s.Now()

	recheck := p.AuditoryID.Set || p.EndTime.Set

	var detail *model.BookingDetail
	err := s.store.InTx(ctx, func(tx repository.BookingTx) error {
		// Locks are taken auditory first, booking row second, the same order
		// Create takes them in, so a concurrent create and update on one
		// auditory queue up instead of deadlocking.
		cur, err := tx.GetBooking(ctx, id)
		if err != nil {
			return notFound(err, "booking", id)
		}
		if p.EndTime.Set && !end.After(now) {
			return &TemporalError{EndTime: end, Now: now}
		}
		if deviceID, ok := p.DeviceID.Get(); ok {
			if _, err := tx.GetDevice(ctx, deviceID); err != nil {
				return notFound(err, "device", deviceID)
			}
		}

		locked := ""
		if recheck {
			locked = p.AuditoryID.OrElse(cur.AuditoryID)
			if err := s.lockTarget(ctx, tx, locked, p.AuditoryID.Set); err != nil {
				return err
			}
		}

		b, err := tx.GetBookingForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "booking", id)
		}
		if deviceID, ok := p.DeviceID.Get(); ok {
			b.DeviceID = deviceID
		}
		if recheck {
			target := p.AuditoryID.OrElse(b.AuditoryID)
			if target != locked {
				// Another update moved the booking between the two reads.
				if err := s.lockTarget(ctx, tx, target, false); err != nil {
					return err
				}
			}
			if err := s.checkConflict(ctx, tx, target, now, b.ID); err != nil {
				return err
			}
			b.AuditoryID = target
			if p.EndTime.Set {
				b.EndTime = end
			}
		}

		if err := tx.UpdateBooking(ctx, b); err != nil {
			return notFound(err, "booking", id)
		}
		detail, err = tx.GetBookingDetail(ctx, b.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("booking updated",
		zap.String("booking_id", detail.ID),
		zap.String("auditory_id", detail.AuditoryID),
		zap.String("device_id", detail.DeviceID),
		zap.Time("end_time", detail.EndTime))
	s.publish(ctx, queue.EventBookingUpdated, detail)
	return detail, nil
}

// Delete removes booking id, freeing its auditory immediately.
func (s *BookingService) Delete(ctx context.Context, id string) error {
	var detail *model.BookingDetail
	err := s.store.InTx(ctx, func(tx repository.BookingTx) error {
		d, err := tx.GetBookingDetail(ctx, id)
		if err != nil {
			return notFound(err, "booking", id)
		}
		if err := tx.DeleteBooking(ctx, id); err != nil {
			return notFound(err, "booking", id)
		}
		detail = d
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("booking deleted", zap.String("booking_id", id))
	s.publish(ctx, queue.EventBookingDeleted, detail)
	return nil
}

// Get returns booking id with its device and auditory.
func (s *BookingService) Get(ctx context.Context, id string) (*model.BookingDetail, error) {
	d, err := s.store.GetDetail(ctx, id)
	if err != nil {
		return nil, notFound(err, "booking", id)
	}
	return d, nil
}

// List returns bookings matching f, newest end time first.  The active
// filter is evaluated at the service's current instant.
func (s *BookingService) List(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error) {
	if f.Active.Set {
		f.Now = s.Now()
	}
	return s.store.ListDetails(ctx, f)
}

// Availability reports for each auditory whether it is busy right now and,
// if so, until when.
func (s *BookingService) Availability(ctx context.Context, auditories []model.Auditory) ([]model.AuditoryAvailability, error) {
	now := s.Now()
	active, err := s.store.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	return model.Availability(now, auditories, active), nil
}

// lockTarget locks the auditory a booking is checked against. A booking's
// own auditory may have been deleted, which is fine; only an explicitly
// requested auditory has to exist.
func (s *BookingService) lockTarget(ctx context.Context, tx repository.BookingTx, auditoryID string, requested bool) error {
	_, err := tx.LockAuditory(ctx, auditoryID)
	if err == nil || (!requested && errors.Is(err, repository.ErrAuditoryNotFound)) {
		return nil
	}
	return notFound(err, "auditory", auditoryID)
}

func (s *BookingService) checkConflict(ctx context.Context, f ActiveBookingFinder, auditoryID string, now time.Time, excludeID string) error {
	b, err := FindConflict(ctx, f, auditoryID, now, excludeID)
	if err != nil {
		return err
	}
	if b == nil {
		return nil
	}
	s.log.Info("booking conflict",
		zap.String("auditory_id", auditoryID),
		zap.String("blocking_booking_id", b.ID),
		zap.Time("busy_until", b.EndTime))
	return &ConflictError{AuditoryID: auditoryID, BookingID: b.ID, BusyUntil: b.EndTime, Location: s.zone}
}

// publish sends an event after commit.  Failures are logged only; the
// booking change has already happened.
func (s *BookingService) publish(ctx context.Context, eventType string, d *model.BookingDetail) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	ev := queue.NewBookingEvent(eventType, d, s.now())
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.Warn("booking event not published",
			zap.String("event", eventType),
			zap.String("booking_id", d.ID),
			zap.Error(err))
	}
}

// notFound converts a repository sentinel into a *NotFoundError and passes
// other errors through.
func notFound(err error, resource, id string) error {
	switch {
	case errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrDeviceNotFound),
		errors.Is(err, repository.ErrAuditoryNotFound):
		return &NotFoundError{Resource: resource, ID: id, Err: err}
	}
	return err
}

// Accepted end time layouts.  Timestamps without an offset are read as UTC.
var endTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseEndTime parses an ISO-8601 timestamp, returning it in UTC at
// microsecond precision.
func ParseEndTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalidField("endTime", "is required")
	}
	for _, layout := range endTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC().Truncate(time.Microsecond), nil
		}
	}
	return time.Time{}, invalidField("endTime", "must be an ISO-8601 timestamp")
}
