package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auditory-booking/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var detailCols = []string{
	"id", "device_id", "auditory_id", "start_time", "end_time",
	"d.id", "d.name", "a.id", "a.name", "a.capacity",
}

func TestDeviceRepo_CreateAssignsID(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO devices (id, name) VALUES (?, ?)")).
		WithArgs(sqlmock.AnyArg(), "Projector").
		WillReturnResult(sqlmock.NewResult(0, 1))

	d := &model.Device{Name: "Projector"}
	require.NoError(t, NewDeviceRepo(db).Create(context.Background(), d))

	_, err := uuid.Parse(d.ID)
	assert.NoError(t, err)
}

func TestDeviceRepo_GetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("SELECT id, name FROM devices WHERE id = ?")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := NewDeviceRepo(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestDeviceRepo_ListAllEmptyIsNotNil(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("SELECT id, name FROM devices ORDER BY name, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	got, err := NewDeviceRepo(db).ListAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDeviceRepo_UpdateName(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE devices SET name = ? WHERE id = ?")).
		WithArgs("Laptop", "d1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("SELECT id, name FROM devices WHERE id = ?")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("d1", "Laptop"))

	got, err := NewDeviceRepo(db).Update(context.Background(), "d1", model.DevicePatch{Name: model.Some("Laptop")})
	require.NoError(t, err)
	assert.Equal(t, &model.Device{ID: "d1", Name: "Laptop"}, got)
}

func TestDeviceRepo_UpdateMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE devices SET name = ? WHERE id = ?")).
		WithArgs("Laptop", "nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := NewDeviceRepo(db).Update(context.Background(), "nope", model.DevicePatch{Name: model.Some("Laptop")})
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestDeviceRepo_EmptyPatchOnlyReads(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("SELECT id, name FROM devices WHERE id = ?")).
		WithArgs("d1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("d1", "Projector"))

	got, err := NewDeviceRepo(db).Update(context.Background(), "d1", model.DevicePatch{})
	require.NoError(t, err)
	assert.Equal(t, "Projector", got.Name)
}

func TestDeviceRepo_Delete(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("DELETE FROM devices WHERE id = ?")).WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM devices WHERE id = ?")).WithArgs("d1").WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewDeviceRepo(db)
	require.NoError(t, repo.Delete(context.Background(), "d1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "d1"), ErrDeviceNotFound)
}

func TestAuditoryRepo_UpdateBothFields(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("UPDATE auditories SET name = ?, capacity = ? WHERE id = ?")).
		WithArgs("Room 202", 40, "a1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("SELECT id, name, capacity FROM auditories WHERE id = ?")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity"}).AddRow("a1", "Room 202", 40))

	got, err := NewAuditoryRepo(db).Update(context.Background(), "a1", model.AuditoryPatch{
		Name:     model.Some("Room 202"),
		Capacity: model.Some(40),
	})
	require.NoError(t, err)
	assert.Equal(t, &model.Auditory{ID: "a1", Name: "Room 202", Capacity: 40}, got)
}

func TestAuditoryRepo_CreateAndList(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("INSERT INTO auditories (id, name, capacity) VALUES (?, ?, ?)")).
		WithArgs("a1", "Room 101", 30).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("SELECT id, name, capacity FROM auditories ORDER BY name, id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity"}).
			AddRow("a1", "Room 101", 30).
			AddRow("a2", "Room 102", 12))

	repo := NewAuditoryRepo(db)
	require.NoError(t, repo.Create(context.Background(), &model.Auditory{ID: "a1", Name: "Room 101", Capacity: 30}))
	got, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Room 102", got[1].Name)
}

func TestAuditoryRepo_DeleteMissing(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(q("DELETE FROM auditories WHERE id = ?")).WithArgs("x").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewAuditoryRepo(db).Delete(context.Background(), "x"), ErrAuditoryNotFound)
}

func TestBookingRepo_InTxCommits(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id, name, capacity FROM auditories WHERE id = ? FOR UPDATE")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity"}).AddRow("a1", "Room 101", 30))
	mock.ExpectQuery(q("SELECT id, device_id, auditory_id, start_time, end_time FROM bookings WHERE auditory_id = ? AND end_time > ? ORDER BY end_time DESC LIMIT 1 FOR UPDATE")).
		WithArgs("a1", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "auditory_id", "start_time", "end_time"}))
	mock.ExpectExec(q("INSERT INTO bookings (id, device_id, auditory_id, start_time, end_time) VALUES (?, ?, ?, ?, ?)")).
		WithArgs("b1", "d1", "a1", now, end).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewBookingRepo(db).InTx(context.Background(), func(tx BookingTx) error {
		if _, err := tx.LockAuditory(context.Background(), "a1"); err != nil {
			return err
		}
		active, err := tx.FindActiveBooking(context.Background(), "a1", now, "")
		if err != nil {
			return err
		}
		assert.Nil(t, active)
		return tx.InsertBooking(context.Background(), &model.Booking{
			ID: "b1", DeviceID: "d1", AuditoryID: "a1", StartTime: now, EndTime: end,
		})
	})
	require.NoError(t, err)
}

func TestBookingRepo_InTxRollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id, name, capacity FROM auditories WHERE id = ? FOR UPDATE")).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "capacity"}))
	mock.ExpectRollback()

	err := NewBookingRepo(db).InTx(context.Background(), func(tx BookingTx) error {
		_, err := tx.LockAuditory(context.Background(), "gone")
		return err
	})
	assert.ErrorIs(t, err, ErrAuditoryNotFound)
}

func TestBookingTx_FindActiveBookingExcludesSelf(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(q("WHERE auditory_id = ? AND end_time > ? AND id <> ? ORDER BY end_time DESC LIMIT 1 FOR UPDATE")).
		WithArgs("a1", now, "b1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "auditory_id", "start_time", "end_time"}).
			AddRow("b2", "d2", "a1", now.Add(-time.Hour), now.Add(time.Hour)))
	mock.ExpectRollback()

	sentinel := errors.New("stop")
	err := NewBookingRepo(db).InTx(context.Background(), func(tx BookingTx) error {
		b, err := tx.FindActiveBooking(context.Background(), "a1", now, "b1")
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, "b2", b.ID)
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
}

func TestBookingTx_GetBookingTakesNoLock(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "device_id", "auditory_id", "start_time", "end_time"}).
			AddRow("b1", "d1", "a1", start, start.Add(time.Hour))
	}
	mock.ExpectBegin()
	mock.ExpectQuery(q("SELECT id, device_id, auditory_id, start_time, end_time FROM bookings WHERE id = ?") + "$").
		WithArgs("b1").
		WillReturnRows(rows())
	mock.ExpectQuery(q("FROM bookings WHERE id = ? FOR UPDATE")).
		WithArgs("b1").
		WillReturnRows(rows())
	mock.ExpectQuery(q("FROM bookings WHERE id = ?") + "$").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectCommit()

	err := NewBookingRepo(db).InTx(context.Background(), func(tx BookingTx) error {
		b, err := tx.GetBooking(context.Background(), "b1")
		require.NoError(t, err)
		assert.Equal(t, "a1", b.AuditoryID)

		locked, err := tx.GetBookingForUpdate(context.Background(), "b1")
		require.NoError(t, err)
		assert.Equal(t, b, locked)

		_, err = tx.GetBooking(context.Background(), "gone")
		assert.ErrorIs(t, err, ErrBookingNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestBookingTx_UpdateNeverWritesStartTime(t *testing.T) {
	db, mock := newMock(t)
	end := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE bookings SET device_id = ?, auditory_id = ?, end_time = ? WHERE id = ?")).
		WithArgs("d2", "a1", end, "b1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewBookingRepo(db).InTx(context.Background(), func(tx BookingTx) error {
		return tx.UpdateBooking(context.Background(), &model.Booking{
			ID: "b1", DeviceID: "d2", AuditoryID: "a1", StartTime: time.Now(), EndTime: end,
		})
	})
	require.NoError(t, err)
}

func TestBookingRepo_GetDetailWithDanglingDevice(t *testing.T) {
	db, mock := newMock(t)
	start := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q("LEFT JOIN devices d ON d.id = b.device_id")).
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows(detailCols).
			AddRow("b1", "deleted-device", "a1", start, start.Add(time.Hour), nil, nil, "a1", "Room 101", 30))

	got, err := NewBookingRepo(db).GetDetail(context.Background(), "b1")
	require.NoError(t, err)
	assert.Nil(t, got.Device)
	require.NotNil(t, got.Auditory)
	assert.Equal(t, 30, got.Auditory.Capacity)
	assert.Equal(t, "deleted-device", got.DeviceID)
}

func TestBookingRepo_GetDetailNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(q("WHERE b.id = ?")).WithArgs("nope").WillReturnRows(sqlmock.NewRows(detailCols))

	_, err := NewBookingRepo(db).GetDetail(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestBookingRepo_ListDetailsFilters(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q("WHERE b.auditory_id = ? AND b.device_id = ? AND b.end_time > ?\nORDER BY b.end_time DESC, b.id")).
		WithArgs("a1", "d1", now).
		WillReturnRows(sqlmock.NewRows(detailCols).
			AddRow("b1", "d1", "a1", now, now.Add(time.Hour), "d1", "Projector", "a1", "Room 101", 30))

	got, err := NewBookingRepo(db).ListDetails(context.Background(), model.BookingFilter{
		AuditoryID: "a1",
		DeviceID:   "d1",
		Active:     model.Some(true),
		Now:        now,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Projector", got[0].Device.Name)
}

func TestBookingRepo_ListDetailsExpired(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q("WHERE b.end_time <= ?")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows(detailCols))

	got, err := NewBookingRepo(db).ListDetails(context.Background(), model.BookingFilter{Active: model.Some(false), Now: now})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBookingRepo_ListActive(t *testing.T) {
	db, mock := newMock(t)
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(q("FROM bookings WHERE end_time > ? ORDER BY end_time DESC")).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "auditory_id", "start_time", "end_time"}).
			AddRow("b1", "d1", "a1", now.Add(-time.Hour), now.Add(time.Hour)))

	got, err := NewBookingRepo(db).ListActive(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].ActiveAt(now))
}
