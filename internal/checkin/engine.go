package checkin

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"checkin/internal/audit"
	"checkin/internal/identity"
	"checkin/internal/metrics"
)

// Engine unifies both entry paths (scan and manual) through one
// recording contract: parse -> match -> record -> audit. It holds
// read-only snapshots of the registrant and event directories, refreshed
// out-of-band by the directory feed, and exactly one active event at a
// time.
type Engine struct {
	recorder *Recorder
	sink     audit.Sink

	mu          sync.RWMutex
	registrants []Registrant
	events      map[string]Event
	activeID    string
	scanActor   string
	last        *Record
	lastEventID string
}

// NewEngine creates an engine. scanActor is the operator identity
// stamped on scan-path records; manual submissions carry their own.
func NewEngine(recorder *Recorder, sink audit.Sink, scanActor string) *Engine {
	return &Engine{
		recorder:  recorder,
		sink:      sink,
		scanActor: scanActor,
		events:    make(map[string]Event),
	}
}

// SetRegistrants replaces the directory snapshot wholesale.
func (e *Engine) SetRegistrants(snapshot []Registrant) {
	copied := make([]Registrant, len(snapshot))
	copy(copied, snapshot)
	e.mu.Lock()
	e.registrants = copied
	e.mu.Unlock()
}

// SetEvents replaces the event snapshot wholesale. The active selection
// survives a refresh as long as the event still exists.
func (e *Engine) SetEvents(events []Event) {
	byID := make(map[string]Event, len(events))
	for _, ev := range events {
		byID[ev.ID] = ev
	}
	e.mu.Lock()
	e.events = byID
	e.mu.Unlock()
}

// SelectEvent makes an event the active check-in target.
func (e *Engine) SelectEvent(id string) {
	e.mu.Lock()
	e.activeID = id
	e.mu.Unlock()
}

// ActiveEvent returns the currently selected event, if any.
func (e *Engine) ActiveEvent() (Event, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ev, ok := e.events[e.activeID]
	return ev, ok
}

// Events returns the current event snapshot.
func (e *Engine) Events() []Event {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Event, 0, len(e.events))
	for _, ev := range e.events {
		out = append(out, ev)
	}
	return out
}

// LastRecorded returns the most recent successful record and the event
// it belongs to, for the operator-facing "last success" summary.
func (e *Engine) LastRecorded() (Record, string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.last == nil {
		return Record{}, "", false
	}
	return *e.last, e.lastEventID, true
}

// SubmitManual records a typed identifier for the active event.
func (e *Engine) SubmitManual(ctx context.Context, rawText, actor string) (Record, error) {
	return e.checkIn(ctx, rawText, MethodManual, actor)
}

// HandleScan records a decoded payload for the active event. Called by
// the scan loop; every failure here is non-fatal to the loop.
func (e *Engine) HandleScan(ctx context.Context, payload string) error {
	_, err := e.checkIn(ctx, payload, MethodScan, e.scanActor)
	return err
}

func (e *Engine) checkIn(ctx context.Context, raw string, method Method, actor string) (Record, error) {
	parsed := identity.Parse(raw)

	e.mu.RLock()
	directory := e.registrants
	event, active := e.events[e.activeID]
	e.mu.RUnlock()

	if !active {
		return Record{}, ErrNoEventSelected
	}

	reg, err := Match(parsed, directory)
	if err != nil {
		metrics.NotFound.Inc()
		return Record{}, fmt.Errorf("identifier %q: %w", parsed, err)
	}

	rec, err := e.recorder.Record(ctx, event, reg, method, actor)
	if err != nil {
		metrics.PersistenceErrors.Inc()
		return Record{}, err
	}
	metrics.Recorded.WithLabelValues(string(method)).Inc()

	e.mu.Lock()
	e.last = &rec
	e.lastEventID = event.ID
	e.mu.Unlock()

	// Fire-and-forget: an audit failure never fails the check-in.
	entry := audit.Entry{
		ID:            uuid.NewString(),
		EventID:       event.ID,
		EventTitle:    event.Title,
		RegistrantKey: rec.RegistrantKey,
		DisplayName:   rec.DisplayName,
		PrimaryID:     rec.PrimaryID,
		Timestamp:     rec.LastCheckedInAt,
		Method:        string(method),
		Actor:         actor,
	}
	if err := e.sink.Emit(ctx, entry); err != nil {
		log.Printf("audit emit failed for %s/%s: %v", event.ID, rec.RegistrantKey, err)
	}
	return rec, nil
}
