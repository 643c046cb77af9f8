package checkin

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin/internal/audit"
)

type failingSink struct{}

func (failingSink) Emit(context.Context, audit.Entry) error {
	return errors.New("sink down")
}

type failingRepo struct{ *MemoryRepository }

func (failingRepo) Put(context.Context, string, Record) (Record, error) {
	return Record{}, errors.New("write rejected")
}

func newTestEngine(t *testing.T) (*Engine, *MemoryRepository, *audit.Memory) {
	t.Helper()
	repo := NewMemoryRepository()
	sink := audit.NewMemory()
	engine := NewEngine(NewRecorder(repo), sink, "station-1")
	engine.SetRegistrants([]Registrant{
		{Key: "m1", PrimaryID: "2025-001", DisplayName: "Ana", GroupTag: "north"},
		{Key: "m2", PrimaryID: "2025-002", DisplayName: "Ben"},
	})
	engine.SetEvents([]Event{{ID: "e1", Title: "General Assembly"}})
	engine.SelectEvent("e1")
	return engine, repo, sink
}

func TestSubmitManual(t *testing.T) {
	engine, repo, sink := newTestEngine(t)

	rec, err := engine.SubmitManual(context.Background(), "  2025001 ", "op-9")
	require.NoError(t, err)
	assert.Equal(t, "m1", rec.RegistrantKey)
	assert.Equal(t, MethodManual, rec.Method)
	assert.Equal(t, "op-9", rec.RecordedBy)

	stored, err := repo.Get(context.Background(), "e1", "m1")
	require.NoError(t, err)
	require.NotNil(t, stored)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].EventID)
	assert.Equal(t, "General Assembly", entries[0].EventTitle)
	assert.Equal(t, "manual", entries[0].Method)
	assert.Equal(t, "op-9", entries[0].Actor)
	assert.NotEmpty(t, entries[0].ID)
}

func TestHandleScanUsesScanActor(t *testing.T) {
	engine, repo, _ := newTestEngine(t)

	err := engine.HandleScan(context.Background(), "https://x/v?id=2025-002")
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), "e1", "m2")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, MethodScan, stored.Method)
	assert.Equal(t, "station-1", stored.RecordedBy)
}

func TestCheckInNoEventSelected(t *testing.T) {
	engine, _, sink := newTestEngine(t)
	engine.SelectEvent("")

	_, err := engine.SubmitManual(context.Background(), "2025-001", "op")
	assert.ErrorIs(t, err, ErrNoEventSelected)
	assert.Empty(t, sink.Entries())
}

func TestCheckInNotFound(t *testing.T) {
	engine, _, sink := newTestEngine(t)

	_, err := engine.SubmitManual(context.Background(), "no-id-here", "op")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, sink.Entries())
}

func TestAuditFailureDoesNotFailCheckIn(t *testing.T) {
	repo := NewMemoryRepository()
	engine := NewEngine(NewRecorder(repo), failingSink{}, "station-1")
	engine.SetRegistrants([]Registrant{{Key: "m1", PrimaryID: "2025-001", DisplayName: "Ana"}})
	engine.SetEvents([]Event{{ID: "e1"}})
	engine.SelectEvent("e1")

	rec, err := engine.SubmitManual(context.Background(), "2025-001", "op")
	require.NoError(t, err)
	assert.Equal(t, "m1", rec.RegistrantKey)
}

func TestPersistenceFailureSurfaced(t *testing.T) {
	engine := NewEngine(NewRecorder(failingRepo{NewMemoryRepository()}), audit.NewMemory(), "station-1")
	engine.SetRegistrants([]Registrant{{Key: "m1", PrimaryID: "2025-001"}})
	engine.SetEvents([]Event{{ID: "e1"}})
	engine.SelectEvent("e1")

	_, err := engine.SubmitManual(context.Background(), "2025-001", "op")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestSnapshotRefreshKeepsSelection(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	engine.SetEvents([]Event{
		{ID: "e1", Title: "General Assembly (moved)"},
		{ID: "e2", Title: "Medical Mission"},
	})

	ev, ok := engine.ActiveEvent()
	require.True(t, ok)
	assert.Equal(t, "General Assembly (moved)", ev.Title)
}

func TestLastRecordedSummary(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, _, ok := engine.LastRecorded()
	assert.False(t, ok)

	_, err := engine.SubmitManual(context.Background(), "2025-001", "op")
	require.NoError(t, err)

	rec, eventID, ok := engine.LastRecorded()
	require.True(t, ok)
	assert.Equal(t, "m1", rec.RegistrantKey)
	assert.Equal(t, "e1", eventID)
	assert.WithinDuration(t, time.Now(), rec.LastCheckedInAt, time.Minute)
}

// End-to-end: a scan followed by a manual re-entry of the same person
// must keep the first arrival and advance the last.
func TestScanThenManualSamePair(t *testing.T) {
	engine, repo, _ := newTestEngine(t)

	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	engine.recorder.now = clock.now

	require.NoError(t, engine.HandleScan(context.Background(), "2025-001"))

	first, err := repo.Get(context.Background(), "e1", "m1")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, MethodScan, first.Method)
	assert.True(t, first.FirstCheckedInAt.Equal(first.LastCheckedInAt))

	clock.advance(30 * time.Minute)

	_, err = engine.SubmitManual(context.Background(), "2025001", "op-2")
	require.NoError(t, err)

	second, err := repo.Get(context.Background(), "e1", "m1")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, MethodManual, second.Method)
	assert.True(t, second.FirstCheckedInAt.Equal(first.FirstCheckedInAt))
	assert.True(t, second.LastCheckedInAt.After(first.LastCheckedInAt))
}
