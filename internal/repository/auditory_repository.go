package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/auditory-booking/internal/model"
)

// AuditoryRepo encapsulates all database queries related to auditories.
type AuditoryRepo struct {
	db *sql.DB
}

// NewAuditoryRepo constructs an AuditoryRepo with the provided DB handle.
func NewAuditoryRepo(db *sql.DB) *AuditoryRepo {
	return &AuditoryRepo{db: db}
}

const auditoryColumns = "id, name, capacity"

// Create inserts a new auditory.  An empty ID is replaced by a fresh UUID.
func (r *AuditoryRepo) Create(ctx context.Context, a *model.Auditory) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	const q = "INSERT INTO auditories (id, name, capacity) VALUES (?, ?, ?)"
	_, err := r.db.ExecContext(ctx, q, a.ID, a.Name, a.Capacity)
	return err
}

// GetByID fetches an auditory or returns ErrAuditoryNotFound.
func (r *AuditoryRepo) GetByID(ctx context.Context, id string) (*model.Auditory, error) {
	return getAuditory(ctx, r.db, id, false)
}

// ListAll returns every auditory ordered by name.  The slice is never nil.
func (r *AuditoryRepo) ListAll(ctx context.Context) ([]model.Auditory, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+auditoryColumns+" FROM auditories ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Auditory, 0)
	for rows.Next() {
		var a model.Auditory
		if err := rows.Scan(&a.ID, &a.Name, &a.Capacity); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update applies the supplied patch fields and returns the stored auditory.
func (r *AuditoryRepo) Update(ctx context.Context, id string, p model.AuditoryPatch) (*model.Auditory, error) {
	if !p.Empty() {
		var sets []string
		var args []any
		if name, ok := p.Name.Get(); ok {
			sets = append(sets, "name = ?")
			args = append(args, name)
		}
		if capacity, ok := p.Capacity.Get(); ok {
			sets = append(sets, "capacity = ?")
			args = append(args, capacity)
		}
		args = append(args, id)
		res, err := r.db.ExecContext(ctx, "UPDATE auditories SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, err
		}
		if err := affected(res, ErrAuditoryNotFound); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes an auditory.  Bookings referencing it are left untouched.
func (r *AuditoryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM auditories WHERE id = ?", id)
	if err != nil {
		return err
	}
	return affected(res, ErrAuditoryNotFound)
}

// getAuditory loads one auditory.  With lock set the row is read with
// FOR UPDATE, which requires q to be a transaction.
func getAuditory(ctx context.Context, q querier, id string, lock bool) (*model.Auditory, error) {
	query := "SELECT " + auditoryColumns + " FROM auditories WHERE id = ?"
	if lock {
		query += " FOR UPDATE"
	}
	var a model.Auditory
	if err := q.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.Capacity); err != nil {
		return nil, notFound(err, ErrAuditoryNotFound)
	}
	return &a, nil
}
