// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// mpscRing is the default backing ring: an FAA-based multi-producer
// single-consumer bounded FIFO of keys.
//
// Producers use FAA to blindly claim positions (SCQ-style), requiring 2n
// physical slots for capacity n. The conflation protocol guarantees each
// key occupies at most one position.
type mpscRing[K any] struct {
	_        pad
	head     atomix.Uint64 // Consumer index (single consumer writes, but producers read)
	_        pad
	tail     atomix.Uint64 // Producer index (FAA)
	_        pad
	buffer   []mpscRingSlot[K]
	capacity uint64 // n (usable capacity)
	size     uint64 // 2n (physical slots)
	mask     uint64 // 2n - 1
}

type mpscRingSlot[K any] struct {
	cycle atomix.Uint64 // Round number
	key   K
	_     padShort
}

// newMPSCRing creates a new FAA-based key ring.
// Capacity rounds up to the next power of 2.
func newMPSCRing[K any](capacity int) *mpscRing[K] {
	if capacity < 2 {
		panic("conflq: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &mpscRing[K]{
		buffer:   make([]mpscRingSlot[K], size),
		capacity: n,
		size:     size,
		mask:     size - 1,
	}

	for i := uint64(0); i < size; i++ {
		q.buffer[i].cycle.StoreRelaxed(i / n)
	}

	return q
}

// Offer appends a key to the ring (multiple producers safe).
// Returns ErrWouldBlock if the ring is full.
func (q *mpscRing[K]) Offer(key K) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed()
		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		myTail := q.tail.AddAcqRel(1) - 1

		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity

		slotCycle := slot.cycle.LoadAcquire()

		if slotCycle == expectedCycle {
			slot.key = key
			slot.cycle.StoreRelease(expectedCycle + 1)
			return nil
		}

		if int64(slotCycle) < int64(expectedCycle) {
			return ErrWouldBlock // Ring full
		}
		sw.Once()
	}
}

// Poll removes and returns the oldest key (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the ring is empty.
func (q *mpscRing[K]) Poll() (K, error) {
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buffer[head&q.mask]

	slotCycle := slot.cycle.LoadAcquire()

	if slotCycle != cycle+1 {
		var zero K
		return zero, ErrWouldBlock
	}

	key := slot.key
	var zero K
	slot.key = zero
	nextEnqCycle := (head + q.size) / q.capacity
	slot.cycle.StoreRelease(nextEnqCycle)
	q.head.StoreRelaxed(head + 1)

	return key, nil
}

// Cap returns the ring capacity.
func (q *mpscRing[K]) Cap() int {
	return int(q.capacity)
}
