package status

import "sync"

// Listener receives the current number of endpoints that are down.
type Listener func(errorCount int)

type subscription struct {
	id uint64
	fn Listener
}

// Broadcaster fans error-count changes out to listeners in registration order.
// It is owned by the composition root and passed to publishers and subscribers.
type Broadcaster struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Broadcaster) Subscribe(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.subs {
			if s.id == id {
				b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish calls every listener synchronously.
func (b *Broadcaster) Publish(errorCount int) {
	b.mu.RLock()
	subs := append([]subscription(nil), b.subs...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(errorCount)
	}
}
