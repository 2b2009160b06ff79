// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import "sync/atomic"

// core is the machinery shared by the three engines: the key→slot index,
// the backing ring, the listeners, and the appender-side exchange buffer.
//
// The appender protocol is: swap the value into the key's slot, and only if
// the slot was empty publish the key into the ring. The swap happens-before
// the publication, so a consumer that dequeues the key is guaranteed to
// find a value in the slot. The poller protocol is the mirror image: poll a
// key from the ring, then take the slot.
type core[K comparable, V any] struct {
	index slotIndex[K, V]
	fifo  KeyQueue[K]
	alis  AppenderListener[K, V]
	plis  PollerListener[K, V]
	// xchg carries a consumer spare back to the producers. At most one
	// spare is retained.
	xchg atomic.Pointer[V]
}

// publish runs after a swap that observed an empty slot. On success it
// returns the exchange spare, if any. When the ring rejects the key it
// rolls back: the slot is taken so that slot-empty ⇔ key-unqueued holds,
// and whatever was withdrawn (the value, or a successor a concurrent
// producer folded in) is returned alongside ErrWouldBlock for the caller to
// recycle.
func (c *core[K, V]) publish(key K, s *slot[V]) (*V, error) {
	if err := c.fifo.Offer(key); err != nil {
		return s.take(), err
	}
	return c.xchg.Swap(nil), nil
}

// poll implements the common poller protocol. fetch and spare are optional.
func (c *core[K, V]) poll(fetch func(K, *V), spare *V) (*V, error) {
	key, err := c.fifo.Poll()
	if err != nil {
		return nil, err
	}
	s, err := c.index.slot(key)
	if err != nil {
		panic("conflq: polled key missing from index")
	}
	v := s.take()
	if v == nil {
		panic("conflq: slot empty after ring poll")
	}
	if spare != nil {
		c.xchg.Swap(spare)
	}
	if fetch != nil {
		fetch(key, v)
	}
	c.plis.OnPoll(key, v)
	return v, nil
}

// Poll removes and returns the next pending value (single consumer only).
// Returns (nil, ErrWouldBlock) if nothing is pending.
func (c *core[K, V]) Poll() (*V, error) {
	return c.poll(nil, nil)
}

// PollKey behaves like Poll and additionally invokes fetch with the key and
// value before returning.
func (c *core[K, V]) PollKey(fetch func(key K, value *V)) (*V, error) {
	return c.poll(fetch, nil)
}

// Cap returns the backing ring capacity.
func (c *core[K, V]) Cap() int {
	return c.fifo.Cap()
}
