package checkin

import (
	"context"
	"fmt"
	"time"
)

// Repository persists attendance records keyed by (event, registrant).
type Repository interface {
	// Get returns the existing record for the pair, or nil when absent.
	Get(ctx context.Context, eventID, registrantKey string) (*Record, error)
	// Put upserts the full record for the pair. Implementations must not
	// overwrite an already-set FirstCheckedInAt.
	Put(ctx context.Context, eventID string, rec Record) (Record, error)
	// List returns all records for an event.
	List(ctx context.Context, eventID string) ([]Record, error)
}

// Recorder performs the idempotent create-or-update of attendance
// records. Re-recording a pair advances LastCheckedInAt and refreshes
// the snapshotted name and id, but FirstCheckedInAt never moves after
// the first write.
type Recorder struct {
	repo Repository
	now  func() time.Time
}

// NewRecorder creates a recorder backed by a repository.
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record upserts the attendance entry for (event, registrant).
func (r *Recorder) Record(ctx context.Context, event Event, reg Registrant, method Method, actor string) (Record, error) {
	existing, err := r.repo.Get(ctx, event.ID, reg.Key)
	if err != nil {
		return Record{}, fmt.Errorf("read attendance: %w", err)
	}

	now := r.now().UTC()
	first := now
	if existing != nil && !existing.FirstCheckedInAt.IsZero() {
		first = existing.FirstCheckedInAt
	}

	rec := Record{
		RegistrantKey:    reg.Key,
		DisplayName:      reg.DisplayName,
		PrimaryID:        reg.PrimaryID,
		FirstCheckedInAt: first,
		LastCheckedInAt:  now,
		RecordedBy:       actor,
		Method:           method,
	}
	saved, err := r.repo.Put(ctx, event.ID, rec)
	if err != nil {
		return Record{}, fmt.Errorf("persist attendance: %w", err)
	}
	return saved, nil
}
