package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type subscription struct {
	id     string
	kind   Kind
	active atomic.Bool
	cancel func()
}

func (s *subscription) ID() string     { return s.id }
func (s *subscription) Kind() Kind     { return s.kind }
func (s *subscription) IsActive() bool { return s.active.Load() }
func (s *subscription) Cancel() error {
	if s.active.CompareAndSwap(true, false) {
		s.cancel()
	}
	return nil
}

type entry struct {
	sub     *subscription
	handler Handler
}

// inMemoryBus is the Bus used by the daemon.
type inMemoryBus struct {
	mu sync.RWMutex
	// handlers: kind -> subID -> entry
	handlers  map[Kind]map[string]entry
	metrics   Metrics
	observers map[Observer]struct{}
}

func New() Bus {
	return &inMemoryBus{
		handlers:  make(map[Kind]map[string]entry),
		observers: make(map[Observer]struct{}),
	}
}

func (b *inMemoryBus) Subscribe(kind Kind, handler Handler) (Subscription, error) {
	if handler == nil {
		return nil, errors.New("bus: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[kind] == nil {
		b.handlers[kind] = make(map[string]entry)
	}
	s := &subscription{id: uuid.NewString(), kind: kind}
	s.active.Store(true)
	s.cancel = func() {
		b.mu.Lock()
		delete(b.handlers[kind], s.id)
		b.mu.Unlock()
	}
	b.handlers[kind][s.id] = entry{sub: s, handler: handler}
	return s, nil
}

func (b *inMemoryBus) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Cancel()
}

func (b *inMemoryBus) AddObserver(obs Observer) {
	b.mu.Lock()
	b.observers[obs] = struct{}{}
	b.mu.Unlock()
}

func (b *inMemoryBus) RemoveObserver(obs Observer) {
	b.mu.Lock()
	delete(b.observers, obs)
	b.mu.Unlock()
}

func (b *inMemoryBus) Metrics() Metrics {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.metrics
}

func (b *inMemoryBus) Publish(event Event) error {
	start := time.Now()

	b.mu.RLock()
	entries := make([]entry, 0, len(b.handlers[event.Kind]))
	for _, e := range b.handlers[event.Kind] {
		entries = append(entries, e)
	}
	observers := make([]Observer, 0, len(b.observers))
	for obs := range b.observers {
		observers = append(observers, obs)
	}
	b.mu.RUnlock()

	for _, obs := range observers {
		obs.OnPublish(event)
	}

	var all error
	delivered := 0
	for _, e := range entries {
		if !e.sub.IsActive() {
			continue
		}
		delivered++
		if err := e.handler(event); err != nil {
			all = errors.Join(all, err)
		}
	}

	if len(observers) == 0 {
		return all
	}
	took := time.Since(start)
	for _, obs := range observers {
		obs.OnDelivered(event.Kind, delivered, all, took)
	}

	b.mu.Lock()
	b.metrics.Published++
	b.metrics.DeliveredHandlers += uint64(delivered)
	if all != nil {
		b.metrics.Errors++
	}
	var subs uint64
	for _, m := range b.handlers {
		subs += uint64(len(m))
	}
	b.metrics.SubscribersActive = subs
	b.mu.Unlock()
	return all
}
