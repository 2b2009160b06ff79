// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import "code.hybscloud.com/atomix"

// spscRing is the single-producer backing ring, selected by
// Builder.SingleProducer().
//
// Based on Lamport's ring buffer with cached index optimization. The
// producer caches the consumer's poll index, and vice versa, reducing
// cross-core cache line traffic.
type spscRing[K any] struct {
	_          pad
	head       atomix.Uint64 // Consumer reads from here
	_          pad
	cachedTail uint64 // Consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // Producer writes here
	_          pad
	cachedHead uint64 // Producer's cached view of head
	_          pad
	buffer     []K
	mask       uint64
}

// newSPSCRing creates a new SPSC key ring.
// Capacity rounds up to the next power of 2.
func newSPSCRing[K any](capacity int) *spscRing[K] {
	if capacity < 2 {
		panic("conflq: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	return &spscRing[K]{
		buffer: make([]K, n),
		mask:   n - 1,
	}
}

// Offer appends a key to the ring (producer only).
// Returns ErrWouldBlock if the ring is full.
func (q *spscRing[K]) Offer(key K) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}

	q.buffer[tail&q.mask] = key
	q.tail.StoreRelease(tail + 1)
	return nil
}

// Poll removes and returns the oldest key (consumer only).
// Returns (zero-value, ErrWouldBlock) if the ring is empty.
func (q *spscRing[K]) Poll() (K, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero K
			return zero, ErrWouldBlock
		}
	}

	key := q.buffer[head&q.mask]
	var zero K
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return key, nil
}

// Cap returns the ring capacity.
func (q *spscRing[K]) Cap() int {
	return int(q.mask + 1)
}
