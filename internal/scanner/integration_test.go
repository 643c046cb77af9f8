package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin/internal/audit"
	"checkin/internal/checkin"
)

// Full scan path against a real engine: decode -> parse -> match ->
// record, then a manual re-entry for the same pair.
func TestLoopRecordsThroughEngine(t *testing.T) {
	repo := checkin.NewMemoryRepository()
	engine := checkin.NewEngine(checkin.NewRecorder(repo), audit.NewMemory(), "station-1")
	engine.SetRegistrants([]checkin.Registrant{{Key: "m1", PrimaryID: "2025-001", DisplayName: "Ana"}})
	engine.SetEvents([]checkin.Event{{ID: "e1", Title: "General Assembly"}})
	engine.SelectEvent("e1")

	stream := newFakeStream(frame("2025-001"))
	source := &fakeSource{acquireFn: func(context.Context) (Stream, error) { return stream, nil }}
	clock := newHeldClock()

	loop := NewLoop(source, &payloadDecoder{}, engine, DefaultCooldown)
	loop.clock = clock

	require.NoError(t, loop.Start(context.Background()))

	eventually(t, func() bool {
		rec, _ := repo.Get(context.Background(), "e1", "m1")
		return rec != nil
	}, "scan should produce a record")
	loop.Stop()
	assert.Equal(t, 1, stream.releaseCount())

	first, err := repo.Get(context.Background(), "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, checkin.MethodScan, first.Method)
	assert.Equal(t, "station-1", first.RecordedBy)
	assert.True(t, first.FirstCheckedInAt.Equal(first.LastCheckedInAt))

	time.Sleep(5 * time.Millisecond)

	_, err = engine.SubmitManual(context.Background(), "2025001", "op-2")
	require.NoError(t, err)

	second, err := repo.Get(context.Background(), "e1", "m1")
	require.NoError(t, err)
	assert.Equal(t, checkin.MethodManual, second.Method)
	assert.True(t, second.FirstCheckedInAt.Equal(first.FirstCheckedInAt), "first arrival preserved across re-entry")
	assert.True(t, second.LastCheckedInAt.After(first.LastCheckedInAt))
}

func TestQRDecoderRejectsGarbageFrames(t *testing.T) {
	d := NewQRDecoder()

	_, ok := d.Decode(Frame{JPEG: []byte("not a jpeg")})
	assert.False(t, ok)

	_, ok = d.Decode(Frame{})
	assert.False(t, ok)
}
