package tablesync

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Notifier delivers published values to its subscribers, synchronously and in
// subscription order. It is safe for concurrent use.
type Notifier[T any] struct {
	mu   sync.Mutex
	subs []*notifierSub[T]
}

type notifierSub[T any] struct {
	sub *Subscription
	fn  func(T)
}

// Subscription is a handle for one registered observer. The observer is
// released by Close; there is no global registry to clean up.
type Subscription struct {
	id      uuid.UUID
	once    sync.Once
	release func()
}

func (n *Notifier[T]) Subscribe(fn func(T)) *Subscription {
	sub := &Subscription{id: uuid.New()}
	ns := &notifierSub[T]{sub: sub, fn: fn}
	sub.release = func() {
		n.remove(ns)
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = append(n.subs, ns)
	return sub
}

func (n *Notifier[T]) remove(ns *notifierSub[T]) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs = slices.DeleteFunc(n.subs, func(s *notifierSub[T]) bool {
		return s == ns
	})
}

func (n *Notifier[T]) Publish(v T) {
	n.mu.Lock()
	subs := slices.Clone(n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of active subscriptions.
func (n *Notifier[T]) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Close stops delivery to the observer. It is safe to call more than once.
func (s *Subscription) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.release != nil {
			s.release()
		}
	})
}
