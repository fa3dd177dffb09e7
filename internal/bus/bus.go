// Package bus is the internal fan-out path for normalized hook events.
// Subscribers receive every event keyed by agent id; slow subscribers
// drop events rather than stall delivery for other consumers.
package bus

import (
	"sync"

	"github.com/masra91/clubhouse/internal/provider"
)

// Message is one normalized event attributed to an agent.
type Message struct {
	AgentID string             `json:"agentId"`
	Event   provider.HookEvent `json:"event"`
}

// Bus is a simple publish/subscribe fan-out. Events are not persisted;
// a subscriber only sees what arrives after it subscribes.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Message
	nextID  int
	buffer  int
	dropped func()
}

// New creates a Bus whose subscriber channels buffer the given number of
// messages. onDrop, if non-nil, is called once per message discarded
// because a subscriber was full.
func New(buffer int, onDrop func()) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:    make(map[int]chan Message),
		buffer:  buffer,
		dropped: onDrop,
	}
}

// Subscribe registers a new subscriber. The returned cancel function
// unregisters it and closes the channel.
func (b *Bus) Subscribe() (<-chan Message, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Message, b.buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Publish delivers a message to every subscriber without blocking.
func (b *Bus) Publish(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			if b.dropped != nil {
				b.dropped()
			}
		}
	}
}

// Len returns the current subscriber count.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
