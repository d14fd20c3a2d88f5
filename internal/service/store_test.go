package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/auditory-booking/internal/model"
	"github.com/iliyamo/auditory-booking/internal/repository"
)

// memStore is an in-memory BookingStore.  InTx holds the store lock for the
// whole callback and works on a copy that replaces the committed state only
// when the callback succeeds, which mirrors the row locks and rollback of
// the MySQL store.
type memStore struct {
	mu    sync.Mutex
	state memState
	seq   int
	// locks lists the row locks taken by the last transaction, in order.
	locks []string
}

type memState struct {
	devices    map[string]model.Device
	auditories map[string]model.Auditory
	bookings   map[string]model.Booking
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		devices:    map[string]model.Device{},
		auditories: map[string]model.Auditory{},
		bookings:   map[string]model.Booking{},
	}}
}

func (s memState) clone() memState {
	c := memState{
		devices:    make(map[string]model.Device, len(s.devices)),
		auditories: make(map[string]model.Auditory, len(s.auditories)),
		bookings:   make(map[string]model.Booking, len(s.bookings)),
	}
	for k, v := range s.devices {
		c.devices[k] = v
	}
	for k, v := range s.auditories {
		c.auditories[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	return c
}

func (s memState) detail(b model.Booking) model.BookingDetail {
	d := model.BookingDetail{Booking: b}
	if dev, ok := s.devices[b.DeviceID]; ok {
		d.Device = &dev
	}
	if a, ok := s.auditories[b.AuditoryID]; ok {
		d.Auditory = &a
	}
	return d
}

func (m *memStore) addDevice(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.devices[id] = model.Device{ID: id, Name: name}
}

func (m *memStore) addAuditory(id, name string, capacity int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.auditories[id] = model.Auditory{ID: id, Name: name, Capacity: capacity}
}

func (m *memStore) removeAuditory(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.auditories, id)
}

func (m *memStore) putBooking(b model.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.bookings[b.ID] = b
}

func (m *memStore) bookings() map[string]model.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone().bookings
}

func (m *memStore) InTx(ctx context.Context, fn func(tx repository.BookingTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{store: m, state: m.state.clone()}
	defer func() { m.locks = tx.locks }()
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) GetDetail(ctx context.Context, id string) (*model.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.state.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	d := m.state.detail(b)
	return &d, nil
}

func (m *memStore) ListDetails(ctx context.Context, f model.BookingFilter) ([]model.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.BookingDetail{}
	for _, b := range m.state.bookings {
		if f.AuditoryID != "" && b.AuditoryID != f.AuditoryID {
			continue
		}
		if f.DeviceID != "" && b.DeviceID != f.DeviceID {
			continue
		}
		if active, ok := f.Active.Get(); ok && b.ActiveAt(f.Now) != active {
			continue
		}
		out = append(out, m.state.detail(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EndTime.Equal(out[j].EndTime) {
			return out[i].EndTime.After(out[j].EndTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) ListActive(ctx context.Context, now time.Time) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Booking{}
	for _, b := range m.state.bookings {
		if b.ActiveAt(now) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memTx struct {
	store *memStore
	state memState
	locks []string
}

func (t *memTx) LockAuditory(ctx context.Context, id string) (*model.Auditory, error) {
	t.locks = append(t.locks, "auditory:"+id)
	a, ok := t.state.auditories[id]
	if !ok {
		return nil, repository.ErrAuditoryNotFound
	}
	return &a, nil
}

func (t *memTx) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	d, ok := t.state.devices[id]
	if !ok {
		return nil, repository.ErrDeviceNotFound
	}
	return &d, nil
}

func (t *memTx) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	b, ok := t.state.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (t *memTx) GetBookingForUpdate(ctx context.Context, id string) (*model.Booking, error) {
	t.locks = append(t.locks, "booking:"+id)
	b, ok := t.state.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	return &b, nil
}

func (t *memTx) FindActiveBooking(ctx context.Context, auditoryID string, now time.Time, excludeID string) (*model.Booking, error) {
	var found *model.Booking
	for _, b := range t.state.bookings {
		if b.AuditoryID != auditoryID || !b.EndTime.After(now) || b.ID == excludeID {
			continue
		}
		if found == nil || b.EndTime.After(found.EndTime) {
			b := b
			found = &b
		}
	}
	return found, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		t.store.seq++
		b.ID = fmt.Sprintf("b%03d", t.store.seq)
	}
	t.state.bookings[b.ID] = *b
	return nil
}

func (t *memTx) UpdateBooking(ctx context.Context, b *model.Booking) error {
	cur, ok := t.state.bookings[b.ID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	cur.DeviceID = b.DeviceID
	cur.AuditoryID = b.AuditoryID
	cur.EndTime = b.EndTime
	t.state.bookings[b.ID] = cur
	return nil
}

func (t *memTx) DeleteBooking(ctx context.Context, id string) error {
	if _, ok := t.state.bookings[id]; !ok {
		return repository.ErrBookingNotFound
	}
	delete(t.state.bookings, id)
	return nil
}

func (t *memTx) GetBookingDetail(ctx context.Context, id string) (*model.BookingDetail, error) {
	b, ok := t.state.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	d := t.state.detail(b)
	return &d, nil
}
