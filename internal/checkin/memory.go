package checkin

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is a map-backed repository for dev and tests.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]map[string]Record // eventID -> registrantKey -> record
}

// NewMemoryRepository creates an empty in-memory repo.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]map[string]Record)}
}

// Get returns the record for a pair, nil when absent.
func (m *MemoryRepository) Get(_ context.Context, eventID, registrantKey string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[eventID][registrantKey]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Put upserts the record for a pair, preserving any first arrival
// already on file.
func (m *MemoryRepository) Put(_ context.Context, eventID string, rec Record) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byKey, ok := m.records[eventID]
	if !ok {
		byKey = make(map[string]Record)
		m.records[eventID] = byKey
	}
	if prev, ok := byKey[rec.RegistrantKey]; ok && !prev.FirstCheckedInAt.IsZero() {
		rec.FirstCheckedInAt = prev.FirstCheckedInAt
	}
	byKey[rec.RegistrantKey] = rec
	return rec, nil
}

// List returns the event's records ordered by first arrival.
func (m *MemoryRepository) List(_ context.Context, eventID string) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []Record
	for _, rec := range m.records[eventID] {
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].FirstCheckedInAt.Before(res[j].FirstCheckedInAt)
	})
	return res, nil
}
