// Package audit emits one trail entry per successful check-in. Emission
// is fire-and-forget: a sink failure is logged by the caller and never
// rolls back the attendance write.
package audit

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Entry is the audit payload written after every successful record.
type Entry struct {
	ID            string
	EventID       string
	EventTitle    string
	RegistrantKey string
	DisplayName   string
	PrimaryID     string
	Timestamp     time.Time
	Method        string
	Actor         string
}

// Sink is the abstraction over audit backends.
type Sink interface {
	Emit(ctx context.Context, e Entry) error
}

// Memory keeps entries in process, for dev and tests.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
}

// NewMemory creates an in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Emit appends the entry.
func (m *Memory) Emit(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns a copy of everything emitted so far.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// RedisStream appends entries to a Redis stream via XADD.
type RedisStream struct {
	client *redis.Client
	stream string
}

// NewRedisStream builds a stream-backed sink.
func NewRedisStream(client *redis.Client, stream string) *RedisStream {
	if stream == "" {
		stream = "checkin:audit"
	}
	return &RedisStream{client: client, stream: stream}
}

// Emit appends one entry to the stream.
func (s *RedisStream) Emit(ctx context.Context, e Entry) error {
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{
			"id":             e.ID,
			"event_id":       e.EventID,
			"event_title":    e.EventTitle,
			"registrant_key": e.RegistrantKey,
			"display_name":   e.DisplayName,
			"primary_id":     e.PrimaryID,
			"timestamp":      strconv.FormatInt(e.Timestamp.UnixMilli(), 10),
			"method":         e.Method,
			"actor":          e.Actor,
		},
	}).Err()
}
