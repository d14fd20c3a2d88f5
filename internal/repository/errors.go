// Package repository is the entity store: MySQL persistence for devices,
// auditories and bookings, kept separate from HTTP handlers.  Methods return
// the sentinel values below when a row does not exist so that higher layers
// can map them to 404 responses.
package repository

import (
	"context"
	"database/sql"
	"errors"
)

// ErrDeviceNotFound is returned when no device row has the requested id.
var ErrDeviceNotFound = errors.New("device not found")

// ErrAuditoryNotFound is returned when no auditory row has the requested id.
var ErrAuditoryNotFound = errors.New("auditory not found")

// ErrBookingNotFound is returned when no booking row has the requested id.
var ErrBookingNotFound = errors.New("booking not found")

// querier is satisfied by both *sql.DB and *sql.Tx, letting the read helpers
// run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// notFound maps sql.ErrNoRows to the given sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// affected returns sentinel when the statement touched no row.
func affected(res sql.Result, sentinel error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
