// Package events provides typed observer registration for the compositor's
// single-threaded object graph. An emitting object holds one Signal per event
// kind; subscribers get a cancel capability back and are expected to cancel
// their own subscriptions during their own teardown.
package events

import "slices"

// Signal is an ordered collection of subscriber callbacks for one event
// kind. The zero value is ready to use. Not safe for concurrent use.
type Signal[T any] struct {
	subs []*subscription[T]
}

type subscription[T any] struct {
	fn func(T)
}

// Subscribe registers fn and returns a cancel function. Cancel is idempotent
// and may be called from inside an emit; the subscription fires no further
// callbacks once cancelled.
func (s *Signal[T]) Subscribe(fn func(T)) (cancel func()) {
	sub := &subscription[T]{fn: fn}
	s.subs = append(s.subs, sub)
	return func() {
		sub.fn = nil
		i := slices.Index(s.subs, sub)
		if i >= 0 {
			s.subs = slices.Delete(s.subs, i, i+1)
		}
	}
}

// Emit calls every live subscriber in registration order. Subscribers added
// during an emit do not see the current event.
func (s *Signal[T]) Emit(v T) {
	subs := slices.Clone(s.subs)
	for _, sub := range subs {
		if sub.fn != nil {
			sub.fn(v)
		}
	}
}

// Len reports the number of active subscriptions.
func (s *Signal[T]) Len() int {
	return len(s.subs)
}
