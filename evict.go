// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

// Evict is the conflating queue in which a later value replaces an earlier
// unconsumed one and the displaced value is returned to the producer for
// storage reuse (the exchange protocol).
//
// Construct with [BuildEvict]. Pair with PollExchange on the consumer side
// for allocation-free steady-state operation.
type Evict[K comparable, V any] struct {
	core[K, V]
}

// Enqueue installs value as the pending update for key and returns the
// exchange hand-back: the displaced slot occupant, or the consumer's spare
// when the slot was empty, or nil when neither exists.
// Returns ErrUnknownKey or ErrWouldBlock per the Appender contract.
//
// Panics if value is nil.
func (q *Evict[K, V]) Enqueue(key K, value *V) (*V, error) {
	if value == nil {
		panic("conflq: nil value")
	}
	s, err := q.index.slot(key)
	if err != nil {
		return nil, err
	}
	displaced := s.swap(value)
	handback := displaced
	if displaced == nil {
		w, err := q.publish(key, s)
		if err != nil {
			return w, err
		}
		handback = w
	}
	q.alis.OnEnqueue(key, value, displaced)
	return handback, nil
}

// PollExchange behaves like Poll and deposits spare into the exchange
// buffer for a producer to reuse.
//
// Panics if spare is nil.
func (q *Evict[K, V]) PollExchange(spare *V) (*V, error) {
	if spare == nil {
		panic("conflq: nil spare")
	}
	return q.poll(nil, spare)
}
