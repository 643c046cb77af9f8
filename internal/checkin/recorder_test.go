package checkin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance the recorder's clock between calls.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRecorder(repo Repository) (*Recorder, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	rec := NewRecorder(repo)
	rec.now = clock.now
	return rec, clock
}

func TestRecordFirstArrival(t *testing.T) {
	repo := NewMemoryRepository()
	recorder, clock := newTestRecorder(repo)

	event := Event{ID: "e1", Title: "General Assembly"}
	reg := Registrant{Key: "m1", PrimaryID: "2025-001", DisplayName: "Ana"}

	rec, err := recorder.Record(context.Background(), event, reg, MethodScan, "op-1")
	require.NoError(t, err)
	assert.Equal(t, "m1", rec.RegistrantKey)
	assert.Equal(t, "Ana", rec.DisplayName)
	assert.Equal(t, "2025-001", rec.PrimaryID)
	assert.Equal(t, MethodScan, rec.Method)
	assert.Equal(t, "op-1", rec.RecordedBy)
	assert.True(t, rec.FirstCheckedInAt.Equal(rec.LastCheckedInAt))
	assert.True(t, rec.FirstCheckedInAt.Equal(clock.t))
}

func TestRecordIdempotentFirstArrival(t *testing.T) {
	repo := NewMemoryRepository()
	recorder, clock := newTestRecorder(repo)

	event := Event{ID: "e1"}
	reg := Registrant{Key: "m1", PrimaryID: "2025-001", DisplayName: "Ana"}

	first, err := recorder.Record(context.Background(), event, reg, MethodScan, "op-1")
	require.NoError(t, err)

	clock.advance(45 * time.Minute)

	second, err := recorder.Record(context.Background(), event, reg, MethodManual, "op-2")
	require.NoError(t, err)

	assert.True(t, second.FirstCheckedInAt.Equal(first.FirstCheckedInAt), "first arrival must never move")
	assert.True(t, second.LastCheckedInAt.After(first.LastCheckedInAt))
	assert.Equal(t, MethodManual, second.Method)
	assert.Equal(t, "op-2", second.RecordedBy)
	assert.True(t, second.FirstCheckedInAt.Before(second.LastCheckedInAt) ||
		second.FirstCheckedInAt.Equal(second.LastCheckedInAt))
}

func TestRecordSnapshotsRegistrantFields(t *testing.T) {
	repo := NewMemoryRepository()
	recorder, clock := newTestRecorder(repo)

	event := Event{ID: "e1"}
	reg := Registrant{Key: "m1", PrimaryID: "2025-001", DisplayName: "Ana"}

	_, err := recorder.Record(context.Background(), event, reg, MethodScan, "op-1")
	require.NoError(t, err)

	// a directory edit later must not rewrite the stored record
	reg.DisplayName = "Ana Maria"
	clock.advance(time.Minute)

	stored, err := repo.Get(context.Background(), "e1", "m1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Ana", stored.DisplayName)

	// a re-record refreshes the snapshot deliberately
	updated, err := recorder.Record(context.Background(), event, reg, MethodScan, "op-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.DisplayName)
}

func TestRecordKeysPerPair(t *testing.T) {
	repo := NewMemoryRepository()
	recorder, clock := newTestRecorder(repo)

	ana := Registrant{Key: "m1", PrimaryID: "2025-001", DisplayName: "Ana"}
	ben := Registrant{Key: "m2", PrimaryID: "2025-002", DisplayName: "Ben"}

	_, err := recorder.Record(context.Background(), Event{ID: "e1"}, ana, MethodScan, "op")
	require.NoError(t, err)
	clock.advance(time.Minute)
	_, err = recorder.Record(context.Background(), Event{ID: "e1"}, ben, MethodScan, "op")
	require.NoError(t, err)
	_, err = recorder.Record(context.Background(), Event{ID: "e2"}, ana, MethodScan, "op")
	require.NoError(t, err)

	e1, err := repo.List(context.Background(), "e1")
	require.NoError(t, err)
	require.Len(t, e1, 2)
	assert.Equal(t, "m1", e1[0].RegistrantKey, "list ordered by arrival")

	e2, err := repo.List(context.Background(), "e2")
	require.NoError(t, err)
	assert.Len(t, e2, 1)
}
