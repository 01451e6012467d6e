package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu     sync.Mutex
	byKey  map[string][]string
	active map[string]int
	maxPar map[string]int
	delay  time.Duration
}

func newRecordingHandler(delay time.Duration) *recordingHandler {
	return &recordingHandler{
		byKey:  make(map[string][]string),
		active: make(map[string]int),
		maxPar: make(map[string]int),
		delay:  delay,
	}
}

func (h *recordingHandler) HandleEvent(ctx context.Context, ev Event) {
	msg := ev.(MessagePosted)
	h.mu.Lock()
	h.active[msg.AuthorID]++
	if h.active[msg.AuthorID] > h.maxPar[msg.AuthorID] {
		h.maxPar[msg.AuthorID] = h.active[msg.AuthorID]
	}
	h.mu.Unlock()

	time.Sleep(h.delay)

	h.mu.Lock()
	h.byKey[msg.AuthorID] = append(h.byKey[msg.AuthorID], msg.Content)
	h.active[msg.AuthorID]--
	h.mu.Unlock()
}

func TestDispatcher_PerKeyOrdering(t *testing.T) {
	h := newRecordingHandler(time.Millisecond)
	d := NewDispatcher(h, zerolog.Nop())

	for i, content := range []string{"a", "b", "c", "d"} {
		require.NoError(t, d.Dispatch(MessagePosted{AuthorID: "u1", Content: content}))
		require.NoError(t, d.Dispatch(MessagePosted{AuthorID: "u2", Content: content + string(rune('0'+i))}))
	}
	d.Wait()

	assert.Equal(t, []string{"a", "b", "c", "d"}, h.byKey["u1"])
	assert.Equal(t, []string{"a0", "b1", "c2", "d3"}, h.byKey["u2"])
	assert.Equal(t, 1, h.maxPar["u1"], "one key must never run concurrently")
	assert.Equal(t, 1, h.maxPar["u2"])
	assert.Zero(t, d.Pending())
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	var handled []EventKind
	var mu sync.Mutex
	d := NewDispatcher(HandlerFunc(func(ctx context.Context, ev Event) {
		if ev.Kind() == EventReady {
			panic("boom")
		}
	}), zerolog.Nop())
	d.OnHandled = func(kind EventKind, elapsed time.Duration, panicked bool) {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, kind)
		if kind == EventReady {
			assert.True(t, panicked)
		}
	}

	require.NoError(t, d.Dispatch(Ready{BotUserID: "bot"}))
	d.Wait()
	require.NoError(t, d.Dispatch(MessagePosted{AuthorID: "u1"}))
	d.Wait()

	assert.Equal(t, []EventKind{EventReady, EventMessagePosted}, handled)
}

func TestDispatcher_CorrelationID(t *testing.T) {
	ids := make(chan string, 1)
	d := NewDispatcher(HandlerFunc(func(ctx context.Context, ev Event) {
		ids <- CorrelationID(ctx)
	}), zerolog.Nop())

	require.NoError(t, d.Dispatch(Ready{}))
	d.Wait()
	assert.NotEmpty(t, <-ids)
}

func TestDispatcher_CloseRejectsNewEvents(t *testing.T) {
	d := NewDispatcher(HandlerFunc(func(ctx context.Context, ev Event) {}), zerolog.Nop())
	require.NoError(t, d.Dispatch(Ready{}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Close(ctx))

	assert.Error(t, d.Dispatch(Ready{}))
	assert.Error(t, d.Dispatch(nil))
}
