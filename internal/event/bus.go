package event

import (
	"sync"
)

const defaultBuffer = 256

// Bus delivers events to a single subscriber in publish order. The
// pipeline publishes from multiple goroutines; the channel serializes
// delivery without reordering or batching.
type Bus struct {
	ch        chan Event
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewBus creates a bus with the default buffer size.
func NewBus() *Bus {
	return NewBusSize(defaultBuffer)
}

// NewBusSize creates a bus with an explicit buffer size.
func NewBusSize(size int) *Bus {
	if size <= 0 {
		size = defaultBuffer
	}
	return &Bus{ch: make(chan Event, size)}
}

// Publish delivers an event to the subscriber. It blocks when the
// buffer is full rather than drop or reorder. Publishing to a closed
// bus is a no-op.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	b.ch <- e
}

// Subscribe returns the delivery channel. The channel is closed when
// the bus is closed.
func (b *Bus) Subscribe() <-chan Event {
	return b.ch
}

// Close closes the bus. Idempotent. Events published before Close
// remain readable from the subscription channel.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()
		close(b.ch)
	})
}
