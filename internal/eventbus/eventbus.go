// Package eventbus provides an in-process publish/subscribe bus.
package eventbus

import (
	"sync"
	"sync/atomic"
)

// DefaultBuffer is the channel capacity given to each subscriber.
const DefaultBuffer = 16

// Bus is a type-safe fan-out bus for events of type T. Delivery is
// non-blocking: a subscriber whose buffer is full misses the event.
type Bus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	buffer  int
	dropped atomic.Uint64
	closed  bool
}

// New creates a Bus with DefaultBuffer sized subscriber channels.
func New[T any]() *Bus[T] { return NewBuffered[T](DefaultBuffer) }

// NewBuffered creates a Bus whose subscriber channels hold size events.
func NewBuffered[T any](size int) *Bus[T] {
	if size < 0 {
		size = 0
	}
	return &Bus[T]{buffer: size}
}

// Publish sends the event to all subscribers.
func (b *Bus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// buffer was full.
func (b *Bus[T]) Dropped() uint64 {
	return b.dropped.Load()
}

// Subscribe registers a subscriber and returns its channel.
func (b *Bus[T]) Subscribe() <-chan T {
	ch := make(chan T, b.buffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Subscribers returns the number of active subscribers.
func (b *Bus[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
