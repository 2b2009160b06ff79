// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import "unsafe"

// Options configures queue creation and backing ring selection.
type Options struct {
	// Producer constraint (determines ring type)
	singleProducer bool

	// Performance hints
	compact bool // Effort to save ring slots

	// Ring capacity (rounds up to next power of 2)
	capacity int
}

// Builder creates conflating queues with fluent configuration.
//
// The builder holds the untyped options; the typed parts (key space,
// merger, listeners, ring factory) go to the build functions, which carry
// the type parameters methods cannot introduce.
//
// Example:
//
//	// Merge queue over three declared instruments
//	b := conflq.New(8)
//	q := conflq.BuildMerge[string, Bar](b, conflq.DeclaredKeys("a", "b", "c"), merger)
//
//	// Evict queue over enum keys on the compact ordinal ring
//	q := conflq.BuildEvict[int, Tick](conflq.New(64).Compact(), conflq.EnumKeys[int](32))
type Builder struct {
	opts Options
}

// New creates a queue builder with the given backing ring capacity.
//
// Capacity rounds up to the next power of 2 and must exceed the number of
// distinct keys ever pending at once; for declared and enum key spaces the
// build functions enforce capacity >= |keys|+1 (headroom for a sentinel).
//
// Panics if capacity < 2.
func New(capacity int) *Builder {
	if capacity < 2 {
		panic("conflq: capacity must be >= 2")
	}
	return &Builder{opts: Options{capacity: capacity}}
}

// SingleProducer declares that only one goroutine will enqueue.
// Selects the Lamport SPSC backing ring. Enum key spaces always use the
// ordinal ring and ignore it.
func (b *Builder) SingleProducer() *Builder {
	b.opts.singleProducer = true
	return b
}

// Compact selects the CAS-based backing ring with n physical slots instead
// of the FAA-based ring with 2n slots.
//
// Trade-off: half ring memory, reduced scalability under high producer
// contention. Applies to the generic and ordinal rings; the SPSC ring
// already uses n slots and ignores it.
func (b *Builder) Compact() *Builder {
	b.opts.compact = true
	return b
}

// BuildOption configures the typed parts of a queue under construction.
type BuildOption[K comparable, V any] func(*buildConfig[K, V])

type buildConfig[K comparable, V any] struct {
	fifo KeyQueueFactory[K]
	alis AppenderListenerFactory[K, V]
	plis PollerListenerFactory[K, V]
}

// WithKeyQueue substitutes the builder's ring selection with a
// caller-supplied factory (invoked once per queue). The supplied ring's
// capacity is the caller's responsibility.
func WithKeyQueue[K comparable, V any](f KeyQueueFactory[K]) BuildOption[K, V] {
	return func(c *buildConfig[K, V]) { c.fifo = f }
}

// WithAppenderListener installs an appender listener. The factory runs once
// at queue construction.
func WithAppenderListener[K comparable, V any](f AppenderListenerFactory[K, V]) BuildOption[K, V] {
	return func(c *buildConfig[K, V]) { c.alis = f }
}

// WithPollerListener installs a poller listener. The factory runs once at
// queue construction.
func WithPollerListener[K comparable, V any](f PollerListenerFactory[K, V]) BuildOption[K, V] {
	return func(c *buildConfig[K, V]) { c.plis = f }
}

// BuildOverwrite creates a queue with the overwrite policy: displaced
// values are dropped.
func BuildOverwrite[K comparable, V any](b *Builder, keys KeySpace[K], opts ...BuildOption[K, V]) *Overwrite[K, V] {
	q := &Overwrite[K, V]{}
	initCore(&q.core, b, keys, opts)
	return q
}

// BuildEvict creates a queue with the evict policy: displaced values are
// returned to producers through the exchange protocol.
func BuildEvict[K comparable, V any](b *Builder, keys KeySpace[K], opts ...BuildOption[K, V]) *Evict[K, V] {
	q := &Evict[K, V]{}
	initCore(&q.core, b, keys, opts)
	return q
}

// BuildMerge creates a queue with the merge policy: displaced values are
// folded into their successors through merger.
//
// Panics if merger is nil.
func BuildMerge[K comparable, V any](b *Builder, keys KeySpace[K], merger Merger[K, V], opts ...BuildOption[K, V]) *Merge[K, V] {
	if merger == nil {
		panic("conflq: nil merger")
	}
	q := &Merge[K, V]{merger: merger}
	initCore(&q.core, b, keys, opts)
	return q
}

// initCore fills c in place: core embeds an atomic exchange cell and must
// not be copied after construction.
func initCore[K comparable, V any](c *core[K, V], b *Builder, keys KeySpace[K], opts []BuildOption[K, V]) {
	cfg := buildConfig[K, V]{}
	for _, o := range opts {
		o(&cfg)
	}

	var fifo KeyQueue[K]
	switch {
	case cfg.fifo != nil:
		fifo = cfg.fifo()
	default:
		if n := keys.size(); n > 0 && b.opts.capacity < n+1 {
			panic("conflq: ring capacity must exceed the declared key count")
		}
		switch {
		case keys.kind == enumSpace && b.opts.compact:
			fifo = newOrdSeqRing[K](b.opts.capacity, keys.ord, keys.key)
		case keys.kind == enumSpace:
			fifo = newOrdRing[K](b.opts.capacity, keys.ord, keys.key)
		case b.opts.singleProducer:
			fifo = newSPSCRing[K](b.opts.capacity)
		case b.opts.compact:
			fifo = newMPSCSeqRing[K](b.opts.capacity)
		default:
			fifo = newMPSCRing[K](b.opts.capacity)
		}
	}

	var index slotIndex[K, V]
	switch keys.kind {
	case declaredSpace:
		index = newMapIndex[K, V](keys.keys)
	case enumSpace:
		index = newOrdIndex[K, V](keys.card, keys.ord)
	default:
		index = &openIndex[K, V]{}
	}

	alis := AppenderListener[K, V](noopAppenderListener[K, V]{})
	if cfg.alis != nil {
		alis = cfg.alis()
	}
	plis := PollerListener[K, V](noopPollerListener[K, V]{})
	if cfg.plis != nil {
		plis = cfg.plis()
	}

	c.index = index
	c.fifo = fifo
	c.alis = alis
	c.plis = plis
}

var (
	// compile time assertions

	_ Queue[int, int]         = (*Overwrite[int, int])(nil)
	_ ExchangeQueue[int, int] = (*Evict[int, int])(nil)
	_ ExchangeQueue[int, int] = (*Merge[int, int])(nil)

	_ KeyQueue[int] = (*mpscRing[int])(nil)
	_ KeyQueue[int] = (*mpscSeqRing[int])(nil)
	_ KeyQueue[int] = (*spscRing[int])(nil)
	_ KeyQueue[int] = (*ordRing[int])(nil)
	_ KeyQueue[int] = (*ordSeqRing[int])(nil)
	_ KeyQueue[int] = (*lfRing[int])(nil)
)

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// ptrSize is the size of a pointer in bytes.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

// padPtr is padding to fill cache line after pointer-sized field.
type padPtr [64 - ptrSize]byte
