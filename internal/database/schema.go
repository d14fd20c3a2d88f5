package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the booking tables.  There are no foreign keys: a device
// or auditory may be deleted while bookings still reference it.  The
// (auditory_id, end_time) index serves the active-booking lookup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id   CHAR(36)     NOT NULL,
		name VARCHAR(255) NOT NULL,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS auditories (
		id       CHAR(36)     NOT NULL,
		name     VARCHAR(255) NOT NULL,
		capacity INT UNSIGNED NOT NULL,
		PRIMARY KEY (id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id          CHAR(36)    NOT NULL,
		device_id   CHAR(36)    NOT NULL,
		auditory_id CHAR(36)    NOT NULL,
		start_time  DATETIME(6) NOT NULL,
		end_time    DATETIME(6) NOT NULL,
		PRIMARY KEY (id),
		KEY idx_bookings_auditory_end (auditory_id, end_time),
		KEY idx_bookings_device (device_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema.  Every statement is idempotent, so it is safe
// to run on each start.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
