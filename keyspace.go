// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import "sync"

// Ordinal constrains enum-like key types: integer kinds whose values map
// directly onto slot array indices.
type Ordinal interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
}

type keySpaceKind uint8

const (
	declaredSpace keySpaceKind = iota
	enumSpace
	openSpace
)

// KeySpace declares how a queue's keys are known: a strict closed set, a
// closed integer-like set, or an open set discovered at runtime. Construct
// one with [DeclaredKeys], [EnumKeys], or [OpenKeys] and pass it to a build
// function.
type KeySpace[K comparable] struct {
	kind keySpaceKind
	keys []K
	card int
	// ord and key convert between enum keys and ordinals. They are bound
	// where the Ordinal constraint is visible; build functions only see K
	// as comparable.
	ord func(K) int
	key func(int) K
}

// DeclaredKeys declares a strict closed key set. Slots are created eagerly
// at construction; enqueueing a key outside the set reports ErrUnknownKey.
//
// Panics if keys is empty or contains duplicates.
func DeclaredKeys[K comparable](keys ...K) KeySpace[K] {
	if len(keys) == 0 {
		panic("conflq: declared key set must not be empty")
	}
	seen := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			panic("conflq: duplicate declared key")
		}
		seen[k] = struct{}{}
	}
	return KeySpace[K]{kind: declaredSpace, keys: keys}
}

// EnumKeys declares a closed integer-like key set 0..cardinality-1. The
// slot index collapses to an array indexed by ordinal and the backing ring
// carries ordinals, so neither allocates. Keys outside the range report
// ErrUnknownKey.
//
// Panics if cardinality < 1.
func EnumKeys[K Ordinal](cardinality int) KeySpace[K] {
	if cardinality < 1 {
		panic("conflq: enum cardinality must be >= 1")
	}
	return KeySpace[K]{
		kind: enumSpace,
		card: cardinality,
		ord:  func(k K) int { return int(k) },
		key:  func(i int) K { return K(i) },
	}
}

// OpenKeys declares an open key set. A slot is created on the first enqueue
// of each new key and reused forever after; unknown-key errors never occur.
// The ring capacity bounds how many distinct keys may be pending at once,
// not how many exist.
func OpenKeys[K comparable]() KeySpace[K] {
	return KeySpace[K]{kind: openSpace}
}

// size returns the declared cardinality, 0 for open spaces.
func (s KeySpace[K]) size() int {
	switch s.kind {
	case declaredSpace:
		return len(s.keys)
	case enumSpace:
		return s.card
	default:
		return 0
	}
}

// slotIndex maps a key to its single mutable slot.
type slotIndex[K comparable, V any] interface {
	// slot returns the key's slot, or ErrUnknownKey for keys outside a
	// closed space. For keys obtained from the ring it never fails.
	slot(key K) (*slot[V], error)
}

// mapIndex serves declared key spaces: built once at construction,
// immutable afterwards, so concurrent lookups need no synchronization.
type mapIndex[K comparable, V any] struct {
	slots map[K]*slot[V]
}

func newMapIndex[K comparable, V any](keys []K) *mapIndex[K, V] {
	slots := make(map[K]*slot[V], len(keys))
	for _, k := range keys {
		slots[k] = new(slot[V])
	}
	return &mapIndex[K, V]{slots: slots}
}

func (x *mapIndex[K, V]) slot(key K) (*slot[V], error) {
	s, ok := x.slots[key]
	if !ok {
		return nil, ErrUnknownKey
	}
	return s, nil
}

// ordIndex serves enum key spaces: a flat slot array indexed by ordinal.
type ordIndex[K comparable, V any] struct {
	slots []slot[V]
	ord   func(K) int
}

func newOrdIndex[K comparable, V any](cardinality int, ord func(K) int) *ordIndex[K, V] {
	return &ordIndex[K, V]{slots: make([]slot[V], cardinality), ord: ord}
}

func (x *ordIndex[K, V]) slot(key K) (*slot[V], error) {
	i := x.ord(key)
	if i < 0 || i >= len(x.slots) {
		return nil, ErrUnknownKey
	}
	return &x.slots[i], nil
}

// openIndex serves open key spaces. Slot creation is write-once per key and
// lookups are read-mostly afterwards, which is sync.Map's designed case;
// LoadOrStore makes concurrent first-enqueue slot creation idempotent.
type openIndex[K comparable, V any] struct {
	slots sync.Map // K -> *slot[V]
}

func (x *openIndex[K, V]) slot(key K) (*slot[V], error) {
	if s, ok := x.slots.Load(key); ok {
		return s.(*slot[V]), nil
	}
	s, _ := x.slots.LoadOrStore(key, new(slot[V]))
	return s.(*slot[V]), nil
}
