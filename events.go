package luckygas

import (
	"sync"

	"github.com/luckygas/luckygas/model"
)

// EventBus fans server-state changes out to dashboard subscribers (websocket
// connections, tests). Delivery is best-effort: a subscriber that cannot keep
// up has events dropped rather than blocking the publisher.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[chan model.EventMessage]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[chan model.EventMessage]struct{}),
	}
}

// Subscribe registers a new subscriber channel. The caller must call the
// returned cancel function when done.
func (b *EventBus) Subscribe() (<-chan model.EventMessage, func()) {
	ch := make(chan model.EventMessage, 16)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subscribers[ch]; ok {
			delete(b.subscribers, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish broadcasts an event to all current subscribers without blocking.
func (b *EventBus) Publish(event model.EventMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is full; drop.
		}
	}
}

// SubscriberCount reports how many subscribers are attached.
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
