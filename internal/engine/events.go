package engine

import (
	"sync"

	"github.com/nbartley/sequent/internal/model"
)

// GraphChanged is the notification emitted after every accepted
// mutation. It carries everything a collaborator needs to re-render:
// the new authoritative order, the critical path, active violations,
// and any components whose manual pins were just invalidated.
type GraphChanged struct {
	Project      model.ProjectID     `json:"project"`
	Seq          int64               `json:"seq"`
	Version      string              `json:"version"`
	Order        []model.ComponentID `json:"order"`
	CriticalPath []model.ComponentID `json:"critical_path"`
	Violations   []model.Violation   `json:"violations"`
	Invalidated  []model.ComponentID `json:"invalidated,omitempty"`
}

// subscriptions fans GraphChanged events out to subscribers.
//
// Delivery is coalescing latest-wins: each subscriber has a buffer of
// one, and a slow subscriber's undelivered event is replaced by the
// newer one. That matches the product's sync model - collaborators
// re-render from the latest notification, they do not replay
// intermediate states.
type subscriptions struct {
	mu   sync.Mutex
	subs map[int]chan GraphChanged
	next int
}

func newSubscriptions() *subscriptions {
	return &subscriptions{subs: make(map[int]chan GraphChanged)}
}

// subscribe registers a new subscriber and returns its channel plus a
// cancel function. Cancel is idempotent.
func (s *subscriptions) subscribe() (<-chan GraphChanged, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan GraphChanged, 1)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if ch, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// publish delivers the event to every subscriber, replacing any
// undelivered older event.
func (s *subscriptions) publish(ev GraphChanged) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.subs {
		for {
			select {
			case ch <- ev:
			default:
				// Buffer full: drop the stale event and retry.
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// count returns the number of active subscribers.
func (s *subscriptions) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
