package queue

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/auditory-booking/internal/model"
)

func sampleEvent() BookingEvent {
	start := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	return NewBookingEvent(EventBookingCreated, &model.BookingDetail{
		Booking: model.Booking{
			ID: "b1", DeviceID: "d1", AuditoryID: "a1",
			StartTime: start, EndTime: start.Add(90 * time.Minute),
		},
		Device:   &model.Device{ID: "d1", Name: "Projector"},
		Auditory: &model.Auditory{ID: "a1", Name: "Room 101", Capacity: 30},
	}, start)
}

func TestNewBookingEvent_DanglingReferences(t *testing.T) {
	ev := NewBookingEvent(EventBookingDeleted, &model.BookingDetail{
		Booking: model.Booking{ID: "b1", DeviceID: "gone", AuditoryID: "a1"},
	}, time.Now())

	assert.Equal(t, "gone", ev.DeviceID)
	assert.Empty(t, ev.DeviceName)
	assert.Empty(t, ev.AuditoryName)
}

func TestFormatLogLine(t *testing.T) {
	line := FormatLogLine(sampleEvent())

	assert.Equal(t,
		`[2026-09-01T08:00:00Z] booking.created | booking_id=b1 | device_id=d1 | device="Projector" | auditory_id=a1 | auditory="Room 101" | start=2026-09-01T08:00:00Z | end=2026-09-01T09:30:00Z`+"\n",
		line)
}

func TestHandleMessage_AppendsLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "booking.log")
	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	require.NoError(t, HandleMessage(body, path))
	require.NoError(t, HandleMessage(body, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "booking_id=b1")
}

func TestHandleMessage_RejectsBadPayloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "booking.log")

	assert.Error(t, HandleMessage([]byte("{not json"), path))
	assert.Error(t, HandleMessage([]byte(`{"type":"booking.created"}`), path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing should be written for rejected messages")
}

func TestStartBookingConsumer_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := StartBookingConsumer(ctx, ConsumerConfig{URL: "amqp://127.0.0.1:1/", Queue: "q", LogPath: "unused"}, zap.NewNop())
	assert.ErrorIs(t, err, context.Canceled)
}
