// Package event carries cross-store notifications, such as "the balance may be
// stale" or "the session ended", without the stores knowing about each other.
package event

import "sync"

// Kind identifies what happened.
type Kind int

const (
	SessionStarted Kind = iota + 1
	SessionEnded
	BalanceStale
)

func (k Kind) String() string {
	switch k {
	case SessionStarted:
		return "session_started"
	case SessionEnded:
		return "session_ended"
	case BalanceStale:
		return "balance_stale"
	default:
		return "unknown"
	}
}

// Event is a single notification.
type Event struct {
	Kind   Kind
	Reason string
}

// Bus fans events out to subscribers synchronously, in subscription order.
// Handlers run on the publisher's goroutine and must not block.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.order = append(b.order, id)

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers e to every current subscriber. A nil bus drops the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	handlers := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn(e)
	}
}
