package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/auditory-booking/internal/model"
)

// BookingTx is the set of reads and writes the booking lifecycle performs
// inside one transaction.  Lookups return the package sentinels for missing
// rows.
type BookingTx interface {
	// LockAuditory loads an auditory and holds its row lock until the
	// transaction ends.  Bookings on one auditory serialize on this lock.
	LockAuditory(ctx context.Context, id string) (*model.Auditory, error)
	GetDevice(ctx context.Context, id string) (*model.Device, error)
	// GetBooking loads a booking without locking it.
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	// GetBookingForUpdate loads a booking and locks its row.
	GetBookingForUpdate(ctx context.Context, id string) (*model.Booking, error)
	// FindActiveBooking returns a booking on auditoryID whose end time is
	// strictly after now, skipping excludeID when it is not empty.  It
	// returns nil, nil when the auditory is free.
	FindActiveBooking(ctx context.Context, auditoryID string, now time.Time, excludeID string) (*model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	UpdateBooking(ctx context.Context, b *model.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	GetBookingDetail(ctx context.Context, id string) (*model.BookingDetail, error)
}

// BookingStore is the booking persistence used by the booking service.
type BookingStore interface {
	// InTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	InTx(ctx context.Context, fn func(tx BookingTx) error) error
	GetDetail(ctx context.Context, id string) (*model.BookingDetail, error)
	ListDetails(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error)
	ListActive(ctx context.Context, now time.Time) ([]model.Booking, error)
}

// BookingRepo is the MySQL BookingStore.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

var _ BookingStore = (*BookingRepo)(nil)

const bookingColumns = "id, device_id, auditory_id, start_time, end_time"

// detailSelect joins a booking with the rows it references.  LEFT JOIN keeps
// bookings whose device or auditory has been deleted.
const detailSelect = `SELECT b.id, b.device_id, b.auditory_id, b.start_time, b.end_time,
       d.id, d.name, a.id, a.name, a.capacity
FROM bookings b
LEFT JOIN devices d ON d.id = b.device_id
LEFT JOIN auditories a ON a.id = b.auditory_id`

// InTx implements BookingStore.
func (r *BookingRepo) InTx(ctx context.Context, fn func(tx BookingTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := fn(&bookingTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetDetail returns one joined booking or ErrBookingNotFound.
func (r *BookingRepo) GetDetail(ctx context.Context, id string) (*model.BookingDetail, error) {
	return getDetail(ctx, r.db, id)
}

// ListDetails returns joined bookings matching f, newest end time first.
func (r *BookingRepo) ListDetails(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error) {
	var where []string
	var args []any
	if f.AuditoryID != "" {
		where = append(where, "b.auditory_id = ?")
		args = append(args, f.AuditoryID)
	}
	if f.DeviceID != "" {
		where = append(where, "b.device_id = ?")
		args = append(args, f.DeviceID)
	}
	if active, ok := f.Active.Get(); ok {
		if active {
			where = append(where, "b.end_time > ?")
		} else {
			where = append(where, "b.end_time <= ?")
		}
		args = append(args, f.Now.UTC())
	}
	q := detailSelect
	if len(where) > 0 {
		q += "\nWHERE " + strings.Join(where, " AND ")
	}
	q += "\nORDER BY b.end_time DESC, b.id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.BookingDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListActive returns the bookings whose end time is after now.
func (r *BookingRepo) ListActive(ctx context.Context, now time.Time) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bookingColumns+" FROM bookings WHERE end_time > ? ORDER BY end_time DESC", now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.DeviceID, &b.AuditoryID, &b.StartTime, &b.EndTime); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// bookingTx implements BookingTx on a *sql.Tx.
type bookingTx struct {
	tx *sql.Tx
}

func (t *bookingTx) LockAuditory(ctx context.Context, id string) (*model.Auditory, error) {
	return getAuditory(ctx, t.tx, id, true)
}

func (t *bookingTx) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	return getDevice(ctx, t.tx, id)
}

func (t *bookingTx) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return t.getBooking(ctx, id, "")
}

func (t *bookingTx) GetBookingForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	return t.getBooking(ctx, id, " FOR UPDATE")
}

func (t *bookingTx) getBooking(ctx context.Context, id, lock string) (*model.Booking, error) {
	var b model.Booking
	err := t.tx.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM bookings WHERE id = ?"+lock, id).
		Scan(&b.ID, &b.DeviceID, &b.AuditoryID, &b.StartTime, &b.EndTime)
	if err != nil {
		return nil, notFound(err, ErrBookingNotFound)
	}
	return &b, nil
}

// FindActiveBooking uses a locking read so that it observes rows committed
// by a transaction that held the auditory lock before us.
func (t *bookingTx) FindActiveBooking(ctx context.Context, auditoryID string, now time.Time, excludeID string) (*model.Booking, error) {
	q := "SELECT " + bookingColumns + " FROM bookings WHERE auditory_id = ? AND end_time > ?"
	args := []any{auditoryID, now.UTC()}
	if excludeID != "" {
		q += " AND id <> ?"
		args = append(args, excludeID)
	}
	q += " ORDER BY end_time DESC LIMIT 1 FOR UPDATE"

	var b model.Booking
	err := t.tx.QueryRowContext(ctx, q, args...).Scan(&b.ID, &b.DeviceID, &b.AuditoryID, &b.StartTime, &b.EndTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *bookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	const q = "INSERT INTO bookings (" + bookingColumns + ") VALUES (?, ?, ?, ?, ?)"
	_, err := t.tx.ExecContext(ctx, q, b.ID, b.DeviceID, b.AuditoryID, b.StartTime.UTC(), b.EndTime.UTC())
	return err
}

// UpdateBooking rewrites the mutable columns.  start_time is never written.
func (t *bookingTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	const q = "UPDATE bookings SET device_id = ?, auditory_id = ?, end_time = ? WHERE id = ?"
	res, err := t.tx.ExecContext(ctx, q, b.DeviceID, b.AuditoryID, b.EndTime.UTC(), b.ID)
	if err != nil {
		return err
	}
	return affected(res, ErrBookingNotFound)
}

func (t *bookingTx) DeleteBooking(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, "DELETE FROM bookings WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affected(res, ErrBookingNotFound)
}

func (t *bookingTx) GetBookingDetail(ctx context.Context, id string) (*model.BookingDetail, error) {
	return getDetail(ctx, t.tx, id)
}

func getDetail(ctx context.Context, q querier, id string) (*model.BookingDetail, error) {
	rows, err := q.QueryContext(ctx, detailSelect+"\nWHERE b.id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrBookingNotFound
	}
	return scanDetail(rows)
}

func scanDetail(rows *sql.Rows) (*model.BookingDetail, error) {
	var d model.BookingDetail
	var devID, devName, audID, audName sql.NullString
	var audCap sql.NullInt64
	if err := rows.Scan(
		&d.ID, &d.DeviceID, &d.AuditoryID, &d.StartTime, &d.EndTime,
		&devID, &devName, &audID, &audName, &audCap,
	); err != nil {
		return nil, err
	}
	if devID.Valid {
		d.Device = &model.Device{ID: devID.String, Name: devName.String}
	}
	if audID.Valid {
		d.Auditory = &model.Auditory{ID: audID.String, Name: audName.String, Capacity: int(audCap.Int64)}
	}
	return &d, nil
}
