package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type correlationKey struct{}

// CorrelationID returns the event correlation ID stored in ctx, if any
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Dispatcher serialises events per key. Each key gets a lane goroutine that
// drains its queue in arrival order and exits once the queue is empty, so
// events of one user never interleave while different users proceed in
// parallel.
type Dispatcher struct {
	handler Handler
	log     zerolog.Logger

	// OnHandled, when set, is called after every event with its duration.
	OnHandled func(kind EventKind, elapsed time.Duration, panicked bool)

	mu     sync.Mutex
	lanes  map[string][]Event
	closed bool
	wg     sync.WaitGroup
	base   context.Context
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher delivering events to handler
func NewDispatcher(handler Handler, log zerolog.Logger) *Dispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handler: handler,
		log:     log,
		lanes:   make(map[string][]Event),
		base:    base,
		cancel:  cancel,
	}
}

// Dispatch queues ev on its lane. It never blocks on the handler.
// Events dispatched after Close are dropped and reported as an error.
func (d *Dispatcher) Dispatch(ev Event) error {
	if ev == nil {
		return fmt.Errorf("dispatch: nil event")
	}
	key := ev.Key()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("dispatch: dispatcher closed, dropping %s event", ev.Kind())
	}

	queue, running := d.lanes[key]
	d.lanes[key] = append(queue, ev)
	if !running {
		d.wg.Add(1)
		go d.runLane(key)
	}
	return nil
}

// Pending returns the number of queued but unhandled events
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, q := range d.lanes {
		n += len(q)
	}
	return n
}

// Wait blocks until every lane is idle
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting events and waits for queued ones to finish, or for
// ctx to expire. In-flight handlers see their context cancelled on expiry.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		return fmt.Errorf("dispatch: drain interrupted: %w", ctx.Err())
	}
}

func (d *Dispatcher) runLane(key string) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		queue := d.lanes[key]
		if len(queue) == 0 {
			delete(d.lanes, key)
			d.mu.Unlock()
			return
		}
		ev := queue[0]
		queue[0] = nil
		d.lanes[key] = queue[1:]
		d.mu.Unlock()

		d.handle(ev)
	}
}

func (d *Dispatcher) handle(ev Event) {
	eventID := uuid.NewString()
	ctx := context.WithValue(d.base, correlationKey{}, eventID)
	start := time.Now()
	panicked := false

	defer func() {
		if r := recover(); r != nil {
			panicked = true
			d.log.Error().
				Str("event_id", eventID).
				Str("event", string(ev.Kind())).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("event handler panicked")
		}
		elapsed := time.Since(start)
		if d.OnHandled != nil {
			d.OnHandled(ev.Kind(), elapsed, panicked)
		}
		d.log.Debug().
			Str("event_id", eventID).
			Str("event", string(ev.Kind())).
			Dur("elapsed", elapsed).
			Msg("event handled")
	}()

	d.handler.HandleEvent(ctx, ev)
}
