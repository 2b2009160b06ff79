// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

// Overwrite is the conflating queue in which a later value replaces an
// earlier unconsumed one and the displaced value is dropped.
//
// This is the cheapest engine: one wait-free atomic exchange per enqueue,
// two atomics per poll. Use it when values are immutable and allocation is
// acceptable. Construct with [BuildOverwrite].
type Overwrite[K comparable, V any] struct {
	core[K, V]
}

// Enqueue installs value as the pending update for key. The displaced
// value, if any, is released; the returned hand-back is always nil.
// Returns ErrUnknownKey or ErrWouldBlock per the Appender contract.
//
// Panics if value is nil.
func (q *Overwrite[K, V]) Enqueue(key K, value *V) (*V, error) {
	if value == nil {
		panic("conflq: nil value")
	}
	s, err := q.index.slot(key)
	if err != nil {
		return nil, err
	}
	prev := s.swap(value)
	if prev == nil {
		if _, err := q.publish(key, s); err != nil {
			// Withdrawn value dropped: overwrite releases displaced values.
			return nil, err
		}
	}
	q.alis.OnEnqueue(key, value, prev)
	return nil, nil
}
