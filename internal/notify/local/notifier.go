// Package local provides an in-memory Notifier for tests and single-process
// deployments that don't run a Kafka broker.
package local

import (
	"context"
	"sync"

	"github.com/akimon658/twittra/internal/domain"
)

// Notifier fans out update events to registered subscriber channels. It
// never blocks a slow subscriber: a subscriber that can't keep up misses
// events rather than stalling NotifyMessageUpdated.
type Notifier struct {
	mu          sync.Mutex
	subscribers map[int]chan domain.Message
	nextID      int
}

// New builds an empty Notifier.
func New() *Notifier {
	return &Notifier{subscribers: make(map[int]chan domain.Message)}
}

// Subscribe registers a new listener with the given buffer size and returns
// the channel along with an unsubscribe function. Calling unsubscribe more
// than once is safe.
func (n *Notifier) Subscribe(buffer int) (<-chan domain.Message, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	ch := make(chan domain.Message, buffer)
	n.subscribers[id] = ch

	unsubscribe := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if existing, ok := n.subscribers[id]; ok {
			close(existing)
			delete(n.subscribers, id)
		}
	}

	return ch, unsubscribe
}

// NotifyMessageUpdated implements port.Notifier.
func (n *Notifier) NotifyMessageUpdated(ctx context.Context, message domain.Message) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subscribers {
		select {
		case ch <- message:
		default:
		}
	}
}
