package scanner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"checkin/internal/metrics"
)

// DefaultCooldown is the pause after a successful decode, long enough
// for the operator to move the code out of frame.
const DefaultCooldown = 1200 * time.Millisecond

// Sink consumes a decoded payload and runs the match+record tail.
type Sink interface {
	HandleScan(ctx context.Context, payload string) error
}

// State of the scan loop.
type State int32

const (
	StateIdle State = iota
	StateStarting
	StateStreaming
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateStreaming:
		return "streaming"
	case StatePaused:
		return "paused"
	}
	return "unknown"
}

// Loop is the scan-loop state machine: Idle -> Starting -> Streaming
// <-> Paused, back to Idle on stop. It owns the camera handle while
// running and guarantees the handle is released on every exit path.
//
// Two independent mechanisms keep one decode from being recorded twice:
// the cooldown pause stops the loop pulling frames while the same code
// is still in view, and a re-entrancy guard ensures the match+record
// tail never runs twice concurrently. A decode arriving while the guard
// is held is parked and dispatched as soon as the tail settles.
type Loop struct {
	source   Source
	decoder  Decoder
	sink     Sink
	clock    Clock
	cooldown time.Duration
	facing   string

	mu         sync.Mutex
	state      State
	runCtx     context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	tailBusy   bool
	pending    string
	hasPending bool
}

// NewLoop creates a stopped loop. A non-positive cooldown selects
// DefaultCooldown.
func NewLoop(source Source, decoder Decoder, sink Sink, cooldown time.Duration) *Loop {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Loop{
		source:   source,
		decoder:  decoder,
		sink:     sink,
		clock:    systemClock{},
		cooldown: cooldown,
		facing:   FacingEnvironment,
	}
}

// SetFacing overrides the camera facing preference. Takes effect on the
// next Start.
func (l *Loop) SetFacing(facing string) {
	l.mu.Lock()
	if facing != "" {
		l.facing = facing
	}
	l.mu.Unlock()
}

// State returns the current loop state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Start acquires the camera and begins streaming. Starting an already
// running loop is a no-op; the handle is exclusively owned.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state != StateIdle {
		l.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.state = StateStarting
	l.runCtx = runCtx
	l.cancel = cancel
	l.mu.Unlock()

	stream, err := l.source.Acquire(runCtx, l.facing)
	if err != nil {
		metrics.CameraErrors.Inc()
		l.mu.Lock()
		l.state = StateIdle
		l.cancel = nil
		l.mu.Unlock()
		cancel()
		if errors.Is(err, ErrCameraUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}

	l.mu.Lock()
	if runCtx.Err() != nil {
		// Stopped while the camera was being acquired.
		l.state = StateIdle
		l.mu.Unlock()
		return stream.Release()
	}
	l.state = StateStreaming
	l.wg.Add(1)
	l.mu.Unlock()

	go l.run(runCtx, stream)
	return nil
}

// Stop cancels any pending frame pull, releases the camera, and returns
// once the loop goroutine has exited. A record tail already in flight
// is allowed to complete; its result is simply not awaited.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	l.wg.Wait()
}

func (l *Loop) run(ctx context.Context, stream Stream) {
	defer l.wg.Done()
	defer func() {
		if err := stream.Release(); err != nil {
			log.Printf("camera release failed: %v", err)
		}
		l.mu.Lock()
		l.state = StateIdle
		l.pending, l.hasPending = "", false
		l.mu.Unlock()
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		frame, err := stream.Next(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("frame pull failed, stopping loop: %v", err)
			}
			return
		}
		metrics.FramesPulled.Inc()
		if len(frame.JPEG) == 0 {
			// Capture buffer not primed yet; re-poll without consuming
			// a turn.
			continue
		}

		payload, ok := l.decoder.Decode(frame)
		if !ok {
			continue
		}
		metrics.DecodeHits.Inc()

		l.dispatch(ctx, payload)

		l.setState(StatePaused)
		l.clock.Sleep(ctx, l.cooldown)
		if ctx.Err() != nil {
			return
		}
		l.setState(StateStreaming)
	}
}

// dispatch hands a payload to the tail, or parks it when a tail is
// already in flight.
func (l *Loop) dispatch(ctx context.Context, payload string) {
	l.mu.Lock()
	if l.tailBusy {
		l.pending, l.hasPending = payload, true
		l.mu.Unlock()
		return
	}
	l.tailBusy = true
	l.mu.Unlock()
	l.startTail(ctx, payload)
}

func (l *Loop) startTail(ctx context.Context, payload string) {
	// The tail may outlive a stopped loop; a partially applied write
	// would be worse than a late-arriving one.
	tailCtx := context.WithoutCancel(ctx)
	go func() {
		if err := l.sink.HandleScan(tailCtx, payload); err != nil {
			log.Printf("scan check-in failed: %v", err)
		}
		l.tailSettled()
	}()
}

// tailSettled clears the guard, or keeps it held and immediately starts
// the parked payload's tail. A payload can only have been parked by a
// live loop, so the dispatch decision rides on the loop's current state
// rather than on the session whose decode started the settling tail:
// that tail may have outlived its own stop and a restart.
func (l *Loop) tailSettled() {
	l.mu.Lock()
	if l.hasPending && l.state != StateIdle {
		payload := l.pending
		l.pending, l.hasPending = "", false
		runCtx := l.runCtx
		l.mu.Unlock()
		l.startTail(runCtx, payload)
		return
	}
	l.pending, l.hasPending = "", false
	l.tailBusy = false
	l.mu.Unlock()
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}
