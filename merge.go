// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import "code.hybscloud.com/spin"

// Merge is the conflating queue in which a later value is combined with an
// earlier unconsumed one through a user-supplied [Merger], so no enqueued
// value is lost: every value contributes to exactly one polled value via
// zero or more merge invocations.
//
// Enqueue is lock-free but not wait-free: concurrent producers for the
// same key retry via CAS. The merger runs on the enqueueing goroutine,
// never on the poller. Construct with [BuildMerge].
type Merge[K comparable, V any] struct {
	core[K, V]
	merger Merger[K, V]
}

// Enqueue folds value into the pending update for key. When the slot was
// empty, value is installed as-is and the key published; otherwise the
// occupant is replaced by merger.Merge(key, occupant, value) and the
// replaced occupant is returned as the exchange hand-back.
// Returns ErrUnknownKey, ErrWouldBlock, or ErrNilMerge per the Appender
// contract.
//
// Values handed back from Enqueue or consumed via a nil-merger fault must
// not be re-enqueued for a key while another producer may hold a stale
// reference mid-merge; the pointer-CAS protocol assumes a recycled value
// does not reappear in the same slot concurrently.
//
// Panics if value is nil.
func (q *Merge[K, V]) Enqueue(key K, value *V) (*V, error) {
	if value == nil {
		panic("conflq: nil value")
	}
	s, err := q.index.slot(key)
	if err != nil {
		return nil, err
	}
	sw := spin.Wait{}
	for {
		cur := s.load()
		if cur == nil {
			if !s.cas(nil, value) {
				sw.Once()
				continue
			}
			handback, err := q.publish(key, s)
			if err != nil {
				return handback, err
			}
			q.alis.OnEnqueue(key, value, nil)
			return handback, nil
		}

		merged := q.merger.Merge(key, cur, value)
		if merged == nil {
			// Defined fault state: install the newer value unmerged and
			// surface the fault; the older value goes back for reuse.
			if !s.cas(cur, value) {
				sw.Once()
				continue
			}
			q.alis.OnEnqueue(key, value, cur)
			return cur, ErrNilMerge
		}

		if s.cas(cur, merged) {
			q.alis.OnEnqueue(key, merged, cur)
			return cur, nil
		}
		sw.Once()
	}
}

// PollExchange behaves like Poll and deposits spare into the exchange
// buffer for a producer to reuse.
//
// Panics if spare is nil.
func (q *Merge[K, V]) PollExchange(spare *V) (*V, error) {
	if spare == nil {
		panic("conflq: nil spare")
	}
	return q.poll(nil, spare)
}
