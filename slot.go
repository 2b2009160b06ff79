// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import "sync/atomic"

// slot is the per-key conflation cell: an atomic holder of zero or one
// pending value, nil encoding Empty.
//
// The cell is a GC-traced atomic pointer rather than an atomix scalar:
// atomix exposes integer cells only, and a *V parked in a Uintptr is
// invisible to the collector. Swap and take are single wait-free exchanges;
// the merge engine additionally drives the cell through load/cas retry.
// No intermediate state is observable.
type slot[V any] struct {
	ref atomic.Pointer[V]
	_   padPtr
}

// swap atomically installs v and returns the previous occupant, nil if the
// slot was empty.
func (s *slot[V]) swap(v *V) *V {
	return s.ref.Swap(v)
}

// take atomically removes and returns the current occupant, leaving the
// slot empty.
func (s *slot[V]) take() *V {
	return s.ref.Swap(nil)
}

func (s *slot[V]) load() *V {
	return s.ref.Load()
}

func (s *slot[V]) cas(old, next *V) bool {
	return s.ref.CompareAndSwap(old, next)
}
