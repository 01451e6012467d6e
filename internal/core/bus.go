package core

import (
	"context"
	"fmt"
	"sync"
)

// MessageFilter decides whether a subscriber receives a message
type MessageFilter func(msg MessagePosted) bool

// MessageFunc receives the messages a subscription accepted
type MessageFunc func(ctx context.Context, msg MessagePosted)

// MessageBus fans the global message stream out to channel-scoped
// subscriptions. A channel has at most one subscriber.
type MessageBus struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewMessageBus creates an empty bus
func NewMessageBus() *MessageBus {
	return &MessageBus{subs: make(map[string]*Subscription)}
}

// Subscription is a live channel-scoped listener. Close releases it.
type Subscription struct {
	bus       *MessageBus
	channelID string
	filter    MessageFilter
	fn        MessageFunc
	once      sync.Once
}

// Subscribe registers fn for messages in channelID that pass filter
func (b *MessageBus) Subscribe(channelID string, filter MessageFilter, fn MessageFunc) (*Subscription, error) {
	if channelID == "" {
		return nil, fmt.Errorf("subscribe: empty channel ID")
	}
	if fn == nil {
		return nil, fmt.Errorf("subscribe: nil message func")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.subs[channelID]; exists {
		return nil, fmt.Errorf("subscribe: channel %s already has a listener", channelID)
	}
	sub := &Subscription{bus: b, channelID: channelID, filter: filter, fn: fn}
	b.subs[channelID] = sub
	return sub, nil
}

// Publish delivers msg to the subscription of its channel. It reports
// whether a subscriber accepted the message.
func (b *MessageBus) Publish(ctx context.Context, msg MessagePosted) bool {
	b.mu.RLock()
	sub, ok := b.subs[msg.ChannelID]
	b.mu.RUnlock()
	if !ok {
		return false
	}
	if sub.filter != nil && !sub.filter(msg) {
		return false
	}
	sub.fn(ctx, msg)
	return true
}

// Len returns the number of live subscriptions
func (b *MessageBus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// ChannelID returns the channel the subscription listens on
func (s *Subscription) ChannelID() string {
	return s.channelID
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		defer s.bus.mu.Unlock()
		if s.bus.subs[s.channelID] == s {
			delete(s.bus.subs, s.channelID)
		}
	})
}
