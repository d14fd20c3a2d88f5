package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auditory-booking/internal/model"
	"github.com/iliyamo/auditory-booking/internal/repository"
)

// staticFinder returns its booking regardless of the query, which lets the
// tests check the boundary handling in FindConflict itself.
type staticFinder struct{ b *model.Booking }

func (f staticFinder) FindActiveBooking(context.Context, string, time.Time, string) (*model.Booking, error) {
	return f.b, nil
}

func TestFindConflict_Boundaries(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	cases := []struct {
		name    string
		booking *model.Booking
		exclude string
		want    bool
	}{
		{"free", nil, "", false},
		{"ends in the future", &model.Booking{ID: "b1", EndTime: now.Add(time.Nanosecond)}, "", true},
		{"ends exactly now", &model.Booking{ID: "b1", EndTime: now}, "", false},
		{"ended", &model.Booking{ID: "b1", EndTime: now.Add(-time.Minute)}, "", false},
		{"self excluded", &model.Booking{ID: "b1", EndTime: now.Add(time.Hour)}, "b1", false},
		{"other than excluded", &model.Booking{ID: "b2", EndTime: now.Add(time.Hour)}, "b1", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := HasConflict(ctx, staticFinder{tc.booking}, "a1", now, tc.exclude)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHasConflict_AgainstStore(t *testing.T) {
	s := newMemStore()
	s.putBooking(model.Booking{ID: "b1", AuditoryID: "a1", EndTime: t0.Add(time.Hour)})

	err := s.InTx(context.Background(), func(tx repository.BookingTx) error {
		busy, err := HasConflict(context.Background(), tx, "a1", t0, "")
		require.NoError(t, err)
		assert.True(t, busy)

		busy, err = HasConflict(context.Background(), tx, "a2", t0, "")
		require.NoError(t, err)
		assert.False(t, busy)
		return nil
	})
	require.NoError(t, err)
}
