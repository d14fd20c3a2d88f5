package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/auditory-booking/internal/model"
)

// DeviceRepo encapsulates all database queries related to devices.
type DeviceRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewDeviceRepo constructs a DeviceRepo with the provided DB handle.
func NewDeviceRepo(db *sql.DB) *DeviceRepo {
	return &DeviceRepo{db: db}
}

// Create inserts a new device.  An empty ID is replaced by a fresh UUID.
func (r *DeviceRepo) Create(ctx context.Context, d *model.Device) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	const q = "INSERT INTO devices (id, name) VALUES (?, ?)"
	_, err := r.db.ExecContext(ctx, q, d.ID, d.Name)
	return err
}

// GetByID fetches a device.  It returns ErrDeviceNotFound if no row is found.
func (r *DeviceRepo) GetByID(ctx context.Context, id string) (*model.Device, error) {
	return getDevice(ctx, r.db, id)
}

// ListAll returns every device ordered by name.  The slice is never nil.
func (r *DeviceRepo) ListAll(ctx context.Context) ([]model.Device, error) {
	const q = "SELECT id, name FROM devices ORDER BY name, id"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Device, 0)
	for rows.Next() {
		var d model.Device
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the supplied patch fields and returns the stored device.
// An empty patch only verifies that the device exists.
func (r *DeviceRepo) Update(ctx context.Context, id string, p model.DevicePatch) (*model.Device, error) {
	if !p.Empty() {
		var sets []string
		var args []any
		if name, ok := p.Name.Get(); ok {
			sets = append(sets, "name = ?")
			args = append(args, name)
		}
		args = append(args, id)
		res, err := r.db.ExecContext(ctx, "UPDATE devices SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, err
		}
		if err := affected(res, ErrDeviceNotFound); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a device.  Bookings referencing it are left untouched.
func (r *DeviceRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affected(res, ErrDeviceNotFound)
}

func getDevice(ctx context.Context, q querier, id string) (*model.Device, error) {
	var d model.Device
	err := q.QueryRowContext(ctx, "SELECT id, name FROM devices WHERE id = ?", id).Scan(&d.ID, &d.Name)
	if err != nil {
		return nil, notFound(err, ErrDeviceNotFound)
	}
	return &d, nil
}
