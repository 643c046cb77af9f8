// Package directory subscribes to the external registrant and event
// directories. Each push is a full-replacement snapshot; the engine
// never mutates directory data.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"checkin/internal/checkin"
)

// Target receives directory snapshots.
type Target interface {
	SetRegistrants([]checkin.Registrant)
	SetEvents([]checkin.Event)
}

// Feed streams snapshots from Redis pub/sub channels into a target.
type Feed struct {
	client            *redis.Client
	registrantChannel string
	eventChannel      string
	target            Target
}

// NewFeed creates a feed. Empty channel names fall back to defaults.
func NewFeed(client *redis.Client, registrantChannel, eventChannel string, target Target) *Feed {
	if registrantChannel == "" {
		registrantChannel = "directory:registrants"
	}
	if eventChannel == "" {
		eventChannel = "directory:events"
	}
	return &Feed{
		client:            client,
		registrantChannel: registrantChannel,
		eventChannel:      eventChannel,
		target:            target,
	}
}

// Run blocks consuming snapshots until ctx is cancelled. A snapshot
// that fails to parse is logged and skipped; the previous snapshot
// stays in effect.
func (f *Feed) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, f.registrantChannel, f.eventChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("directory subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			switch msg.Channel {
			case f.registrantChannel:
				regs, err := ParseRegistrantSnapshot([]byte(msg.Payload))
				if err != nil {
					log.Printf("registrant snapshot rejected: %v", err)
					continue
				}
				f.target.SetRegistrants(regs)
			case f.eventChannel:
				events, err := ParseEventSnapshot([]byte(msg.Payload))
				if err != nil {
					log.Printf("event snapshot rejected: %v", err)
					continue
				}
				f.target.SetEvents(events)
			}
		}
	}
}

// ParseRegistrantSnapshot decodes a full registrant snapshot.
func ParseRegistrantSnapshot(data []byte) ([]checkin.Registrant, error) {
	var docs []registrantDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	regs := make([]checkin.Registrant, 0, len(docs))
	for _, d := range docs {
		regs = append(regs, d.toRegistrant())
	}
	return regs, nil
}

// ParseEventSnapshot decodes a full event snapshot.
func ParseEventSnapshot(data []byte) ([]checkin.Event, error) {
	var docs []eventDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, err
	}
	events := make([]checkin.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toEvent())
	}
	return events, nil
}
