// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// ordRing is the enum-space backing ring: an FAA-based MPSC FIFO that
// carries key ordinals instead of keys.
//
// Uses 128-bit atomic operations to pack cycle and ordinal into a single
// atomic entry. Based on SCQ algorithm with 2n slots for capacity n.
//
// Entry format: [lo=cycle | hi=ordinal]
type ordRing[K comparable] struct {
	_        pad
	head     atomix.Uint64 // Consumer index (single consumer writes, but producers read)
	_        pad
	tail     atomix.Uint64 // Producer index (FAA)
	_        pad
	buffer   []ordRingSlot
	capacity uint64
	size     uint64
	mask     uint64
	ord      func(K) int
	key      func(int) K
}

type ordRingSlot struct {
	entry atomix.Uint128 // lo=cycle, hi=ordinal
	_     pad
}

// newOrdRing creates a new FAA-based ordinal ring. ord and key convert
// between keys and ordinals; both come from the enum key space.
// Capacity rounds up to the next power of 2.
func newOrdRing[K comparable](capacity int, ord func(K) int, key func(int) K) *ordRing[K] {
	if capacity < 2 {
		panic("conflq: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	size := n * 2

	q := &ordRing[K]{
		buffer:   make([]ordRingSlot, size),
		capacity: n,
		size:     size,
		mask:     size - 1,
		ord:      ord,
		key:      key,
	}

	// Initialize slots based on their first use position's cycle
	// Slots 0 to n-1: first used at positions 0-(n-1), cycle 0
	// Slots n to 2n-1: first used at positions n-(2n-1), cycle 1
	for i := uint64(0); i < size; i++ {
		q.buffer[i].entry.StoreRelaxed(i/n, 0)
	}

	return q
}

// Offer appends a key's ordinal to the ring (multiple producers safe).
// Returns ErrWouldBlock if the ring is full.
func (q *ordRing[K]) Offer(key K) error {
	elem := uint64(q.ord(key))
	sw := spin.Wait{}
	for {
		// Early check: if ring appears full, don't waste a position
		tail := q.tail.LoadAcquire()
		head := q.head.LoadRelaxed() // Atomic read (written by consumer)
		if tail >= head+q.capacity {
			return ErrWouldBlock
		}

		// FAA to blindly claim position (true SCQ)
		myTail := q.tail.AddAcqRel(1) - 1

		slot := &q.buffer[myTail&q.mask]
		expectedCycle := myTail / q.capacity

		// Check slot and try to write atomically (128-bit CAS)
		slotCycle, valHi := slot.entry.LoadAcquire()

		if slotCycle == expectedCycle {
			// Slot ready - atomically update cycle AND store ordinal
			if slot.entry.CompareAndSwapAcqRel(expectedCycle, valHi, expectedCycle+1, elem) {
				return nil
			}
		}

		if int64(slotCycle) < int64(expectedCycle) {
			// SCQ slot repair: advance stale slot so poll can skip this position
			slot.entry.CompareAndSwapAcqRel(slotCycle, valHi, expectedCycle+1, valHi)
			return ErrWouldBlock
		}

		// slotCycle > expectedCycle or CAS failed: another producer used this slot
		sw.Once()
	}
}

// Poll removes and returns the oldest key (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the ring is empty.
func (q *ordRing[K]) Poll() (K, error) {
	head := q.head.LoadRelaxed()
	cycle := head / q.capacity
	slot := &q.buffer[head&q.mask]

	slotCycle, valHi := slot.entry.LoadAcquire()

	if slotCycle != cycle+1 {
		var zero K
		return zero, ErrWouldBlock
	}

	nextEnqCycle := (head + q.size) / q.capacity
	slot.entry.StoreRelease(nextEnqCycle, 0)
	q.head.StoreRelaxed(head + 1)

	return q.key(int(valHi)), nil
}

// Cap returns the ring capacity.
func (q *ordRing[K]) Cap() int {
	return int(q.capacity)
}
