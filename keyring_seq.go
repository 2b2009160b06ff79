// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpscSeqRing is the CAS-based compact backing ring, selected by
// Builder.Compact(): n physical slots for capacity n, at the cost of
// reduced scalability under producer contention.
//
// Producers use CAS to claim slots. The single consumer reads sequentially.
type mpscSeqRing[K any] struct {
	_        pad
	head     atomix.Uint64 // Consumer reads from here
	_        pad
	tail     atomix.Uint64 // Producers CAS here
	_        pad
	buffer   []mpscSeqRingSlot[K]
	mask     uint64
	capacity uint64
}

type mpscSeqRingSlot[K any] struct {
	seq atomix.Uint64
	key K
	_   padShort
}

// newMPSCSeqRing creates a new CAS-based compact key ring.
// Capacity rounds up to the next power of 2.
func newMPSCSeqRing[K any](capacity int) *mpscSeqRing[K] {
	if capacity < 2 {
		panic("conflq: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	q := &mpscSeqRing[K]{
		buffer:   make([]mpscSeqRingSlot[K], n),
		mask:     n - 1,
		capacity: n,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}

	return q
}

// Offer appends a key to the ring (multiple producers safe).
// Returns ErrWouldBlock if the ring is full.
func (q *mpscSeqRing[K]) Offer(key K) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()

		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()

		if seq == tail {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.key = key
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if seq < tail {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Poll removes and returns the oldest key (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the ring is empty.
func (q *mpscSeqRing[K]) Poll() (K, error) {
	head := q.head.LoadRelaxed()
	slot := &q.buffer[head&q.mask]
	seq := slot.seq.LoadAcquire()

	if seq != head+1 {
		var zero K
		return zero, ErrWouldBlock
	}

	key := slot.key
	var zero K
	slot.key = zero
	slot.seq.StoreRelease(head + q.capacity)
	q.head.StoreRelease(head + 1)

	return key, nil
}

// Cap returns the ring capacity.
func (q *mpscSeqRing[K]) Cap() int {
	return int(q.capacity)
}
