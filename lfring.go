// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import (
	lfring "github.com/LENSHOOD/go-lock-free-ring-buffer"
)

// lfRing adapts the LENSHOOD node-based lock-free ring buffer to the
// KeyQueue contract.
type lfRing[K any] struct {
	ring     lfring.RingBuffer[K]
	capacity int
}

// NewLFRing returns a KeyQueue backed by the LENSHOOD node-based MPMC ring
// buffer, for callers who prefer an external ring behind the same contract.
// Capacity rounds up to the next power of 2.
//
// The underlying Offer also fails on producer contention, not only when the
// ring is full; such a rejection surfaces as ErrWouldBlock and the enqueue
// rollback handles it like any other full ring. Use the builder's built-in
// rings when spurious rejections are unacceptable.
func NewLFRing[K any](capacity int) KeyQueue[K] {
	if capacity < 2 {
		panic("conflq: capacity must be >= 2")
	}
	n := roundToPow2(capacity)
	return &lfRing[K]{
		ring:     lfring.New[K](lfring.NodeBased, uint64(n)),
		capacity: n,
	}
}

// Offer appends a key to the ring.
// Returns ErrWouldBlock if the ring is full or the claim was contended.
func (q *lfRing[K]) Offer(key K) error {
	if !q.ring.Offer(key) {
		return ErrWouldBlock
	}
	return nil
}

// Poll removes and returns the oldest key.
// Returns (zero-value, ErrWouldBlock) if the ring is empty.
func (q *lfRing[K]) Poll() (K, error) {
	key, ok := q.ring.Poll()
	if !ok {
		var zero K
		return zero, ErrWouldBlock
	}
	return key, nil
}

// Cap returns the ring capacity.
func (q *lfRing[K]) Cap() int {
	return q.capacity
}
