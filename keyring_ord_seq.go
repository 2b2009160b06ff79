// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// ordSeqRing is the compact enum-space ring, selected by Builder.Compact()
// with an enum key space: n physical slots instead of the FAA ring's 2n.
//
// Producers use CAS to claim slots. The single consumer reads sequentially.
//
// Entry format: [lo=sequence | hi=ordinal]
type ordSeqRing[K comparable] struct {
	_        pad
	head     atomix.Uint64 // Consumer reads from here
	_        pad
	tail     atomix.Uint64 // Producers CAS here
	_        pad
	buffer   []ordSeqRingSlot
	mask     uint64
	capacity uint64
	ord      func(K) int
	key      func(int) K
}

type ordSeqRingSlot struct {
	entry atomix.Uint128 // lo=sequence, hi=ordinal
	_     pad
}

// newOrdSeqRing creates a new CAS-based compact ordinal ring.
// Capacity rounds up to the next power of 2.
func newOrdSeqRing[K comparable](capacity int, ord func(K) int, key func(int) K) *ordSeqRing[K] {
	if capacity < 2 {
		panic("conflq: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	q := &ordSeqRing[K]{
		buffer:   make([]ordSeqRingSlot, n),
		mask:     n - 1,
		capacity: n,
		ord:      ord,
		key:      key,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].entry.StoreRelaxed(i, 0)
	}

	return q
}

// Offer appends a key's ordinal to the ring (multiple producers safe).
// Returns ErrWouldBlock if the ring is full.
func (q *ordSeqRing[K]) Offer(key K) error {
	elem := uint64(q.ord(key))
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadAcquire()

		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		slot := &q.buffer[tail&q.mask]
		seqLo, valHi := slot.entry.LoadAcquire()

		if seqLo == tail {
			if slot.entry.CompareAndSwapAcqRel(seqLo, valHi, tail+1, elem) {
				q.tail.CompareAndSwapRelaxed(tail, tail+1)
				return nil
			}
		} else if seqLo < tail {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Poll removes and returns the oldest key (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the ring is empty.
func (q *ordSeqRing[K]) Poll() (K, error) {
	head := q.head.LoadRelaxed()
	slot := &q.buffer[head&q.mask]
	seqLo, valHi := slot.entry.LoadAcquire()

	if seqLo != head+1 {
		var zero K
		return zero, ErrWouldBlock
	}

	slot.entry.StoreRelease(head+q.capacity, 0)
	q.head.StoreRelease(head + 1)

	return q.key(int(valHi)), nil
}

// Cap returns the ring capacity.
func (q *ordSeqRing[K]) Cap() int {
	return int(q.capacity)
}
