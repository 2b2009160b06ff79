// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

// Queue is the combined producer-consumer interface for a conflating queue.
//
// Any number of goroutines may enqueue; exactly one goroutine may poll.
// Values are passed by pointer and nil is never a valid value: the slot
// protocol uses nil to encode emptiness, and Enqueue panics on a nil value.
//
// The interface intentionally excludes length because accurate counts in
// lock-free algorithms require expensive cross-core synchronization.
// Track counts in application logic (or a [CountListener]) when needed.
type Queue[K comparable, V any] interface {
	Appender[K, V]
	Poller[K, V]
	Cap() int
}

// ExchangeQueue is a Queue whose poller side participates in the exchange
// protocol: the consumer hands a spare value into PollExchange, and the
// spare is routed back to producers through the Enqueue return value. Once
// every key has been touched, steady-state operation allocates nothing.
//
// Evict and merge queues are ExchangeQueues; overwrite queues are not.
type ExchangeQueue[K comparable, V any] interface {
	Appender[K, V]
	ExchangePoller[K, V]
	Cap() int
}

// Appender is the write side of a conflating queue.
//
// Multiple goroutines may share one Appender (queues built with
// SingleProducer excepted).
type Appender[K comparable, V any] interface {
	// Enqueue installs value as the pending update for key (non-blocking).
	//
	// The returned value is the exchange hand-back: for evict queues the
	// displaced slot occupant, for merge queues the value physically
	// replaced by the merge result, and for either the consumer's spare
	// when the slot was empty. Overwrite queues always return nil. A nil
	// hand-back means the caller must allocate its next value.
	//
	// Errors: ErrUnknownKey for keys outside a declared or enum space;
	// ErrWouldBlock when the backing ring rejected the publication, in
	// which case the pending value has been withdrawn from the slot and is
	// returned as the hand-back (evict and merge) or dropped (overwrite).
	//
	// Panics if value is nil.
	Enqueue(key K, value *V) (*V, error)
}

// Poller is the read side of a conflating queue. Single goroutine only.
type Poller[K comparable, V any] interface {
	// Poll removes and returns the next pending value (non-blocking).
	// Returns (nil, ErrWouldBlock) if nothing is pending.
	//
	// Poll order follows the ring insertion order of distinct keys, not of
	// values: a key rewritten N times while pending still occupies exactly
	// one position in the global order.
	Poll() (*V, error)

	// PollKey behaves like Poll and additionally invokes fetch with the
	// key and value before returning, letting the caller capture the key
	// without a value wrapper. fetch may be nil. It is not invoked when
	// nothing is pending.
	PollKey(fetch func(key K, value *V)) (*V, error)
}

// ExchangePoller is a Poller that accepts spare values for the exchange
// protocol.
type ExchangePoller[K comparable, V any] interface {
	Poller[K, V]

	// PollExchange behaves like Poll and additionally deposits spare into
	// the appender-side exchange buffer, where a later Enqueue that finds
	// its slot empty returns it to a producer for reuse. At most one spare
	// is retained; depositing over an unclaimed spare drops the older one.
	//
	// Panics if spare is nil.
	PollExchange(spare *V) (*V, error)
}

// Merger combines an older pending value with a newer one for the same key.
//
// Merge is invoked on the enqueueing goroutine, never on the poller. It
// must be pure with respect to its inputs and must not block. The argument
// order (older, newer) is contractual. When the slot changes between a
// merge and its CAS, Enqueue calls Merge again with the new occupant and
// the same newer pointer, so any change an earlier call made to newer is
// still present. A merger that returns nil triggers ErrNilMerge.
type Merger[K comparable, V any] interface {
	Merge(key K, older, newer *V) *V
}

// MergerFunc adapts a function to the Merger interface.
type MergerFunc[K comparable, V any] func(key K, older, newer *V) *V

// Merge implements Merger.
func (f MergerFunc[K, V]) Merge(key K, older, newer *V) *V {
	return f(key, older, newer)
}

// KeyQueue is the backing ring contract: a bounded lock-free FIFO of keys.
//
// The conflation core relies on it only for key transport; values never
// enter the ring. Offer must be linearizable and FIFO per producer; Poll is
// called by the single consumer. The at-most-once-per-key invariant is
// maintained by the conflation protocol, not by the ring.
type KeyQueue[K any] interface {
	// Offer appends key to the ring.
	// Returns ErrWouldBlock immediately if the ring is full.
	Offer(key K) error

	// Poll removes and returns the oldest key.
	// Returns (zero-value, ErrWouldBlock) immediately if the ring is empty.
	Poll() (K, error)

	// Cap returns the ring capacity.
	Cap() int
}

// KeyQueueFactory supplies a new empty KeyQueue. Passed to WithKeyQueue to
// substitute the builder's ring selection. The supplied ring's capacity
// must exceed the number of distinct keys ever in flight.
type KeyQueueFactory[K any] func() KeyQueue[K]
