// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package conflq provides bounded conflating queues.
//
// A conflating queue is a multi-producer single-consumer queue in which
// updates are keyed, and multiple unconsumed updates for the same key
// collapse into a single pending entry. It targets workloads where each key
// produces a high-frequency stream of overwriting state (prices, order book
// snapshots, sensor readings), the consumer cannot always keep up, and the
// consumer must never see a stale update for a key when a fresher one is
// already available.
//
// # Quick Start
//
//	keys := conflq.DeclaredKeys("EURUSD", "USDJPY", "GBPUSD")
//	q := conflq.BuildOverwrite[string, Tick](conflq.New(8), keys)
//
//	// Producers
//	q.Enqueue("EURUSD", &Tick{Bid: 1.0812, Ask: 1.0814})
//
//	// Single consumer
//	tick, err := q.Poll()
//	if conflq.IsWouldBlock(err) {
//	    // Nothing pending - poll again later
//	}
//
// # Architecture
//
// Every key owns a slot: an atomic cell holding zero or one pending value.
// The backing ring carries keys, never values. Enqueue swaps the new value
// into the key's slot and, only when the slot was empty, publishes the key
// into the ring. Poll dequeues the next key from the ring and takes whatever
// value the slot holds at that moment. A key therefore occupies at most one
// ring position regardless of how many times its slot was rewritten while
// pending, and the consumer always observes the freshest state.
//
// # Conflation Policies
//
// Three engines decide what happens to a value displaced from a slot:
//
//	BuildOverwrite - the displaced value is dropped (cheapest; use when
//	                 values are immutable and allocation is acceptable)
//	BuildEvict     - the displaced value is returned from Enqueue so the
//	                 producer can reuse its storage
//	BuildMerge     - old and new are combined via a user-supplied Merger;
//	                 the physically replaced value is returned for reuse
//
// Evict and merge queues implement the exchange protocol: Enqueue returns
// the displaced (or spare) value, and PollExchange accepts a spare from the
// consumer that is routed back to the producers. Once every key has been
// touched, steady-state operation allocates nothing.
//
//	// Allocation-free consumer loop
//	spare := new(Tick)
//	for {
//	    v, err := q.PollExchange(spare)
//	    if err != nil {
//	        continue
//	    }
//	    process(v)
//	    spare = v // hand the consumed value back on the next poll
//	}
//
// # Merging
//
// A Merger folds an older pending value into a newer one on the appender
// goroutine, never on the poller:
//
//	merger := conflq.MergerFunc[string, Bar](func(key string, older, newer *Bar) *Bar {
//	    m := *newer
//	    m.Open = older.Open
//	    m.High = max(older.High, newer.High)
//	    m.Low = min(older.Low, newer.Low)
//	    m.Count += older.Count
//	    return &m
//	})
//	q := conflq.BuildMerge[string, Bar](conflq.New(8), keys, merger)
//
// The merge engine is lock-free but not wait-free: concurrent producers for
// the same key retry via CAS. A retry calls the merger again with the new
// occupant and the same newer pointer, so a merger that writes into newer
// sees its own earlier writes; the merger above leaves both inputs
// untouched and returns a fresh value.
//
// # Key Spaces
//
// Keys are declared up front or discovered dynamically:
//
//	conflq.DeclaredKeys("a", "b", "c") // strict closed set; unknown keys error
//	conflq.EnumKeys[Instrument](64)    // closed integer-like set; array index,
//	                                   // ordinal-carrying ring, zero allocation
//	conflq.OpenKeys[string]()          // open set; slots created on first use
//
// Declared and enum spaces report ErrUnknownKey for keys outside the set.
// Open spaces accept any key with well-defined equality; the first enqueue
// of a new key allocates its slot, subsequent operations never do.
//
// # Backing Ring
//
// The ring that transports keys is selected by the builder:
//
//	conflq.New(cap)                  // FAA-based MPSC ring (2n slots)
//	conflq.New(cap).Compact()        // CAS-based MPSC ring (n slots)
//	conflq.New(cap).SingleProducer() // Lamport SPSC ring
//
// Enum key spaces automatically use a 128-bit-entry ring that carries
// ordinals, so neither the ring nor the index allocates. Any other ring can
// be supplied through WithKeyQueue, including NewLFRing which adapts the
// LENSHOOD lock-free ring buffer. Ring capacity must exceed the number of
// distinct keys ever in flight; for declared and enum spaces the builder
// enforces capacity >= |keys|+1, leaving headroom for a sentinel key.
//
// # Ordering Guarantees
//
// Per-key causality: the value a poll returns for key K was produced by an
// enqueue for K at least as recent as K's ring insertion. Global order: the
// sequence of keys returned by successive polls follows the order of first
// publications. No value is duplicated: every enqueued value is delivered,
// merged into a successor, handed back to a producer, or (overwrite only)
// explicitly dropped - exactly one of these.
//
// # Full Ring
//
// When the ring rejects a publication the enqueue rolls back: the pending
// value is withdrawn from the slot and handed back to the caller (evict and
// merge) or dropped (overwrite), together with ErrWouldBlock. The
// alternative - leaving the value in the slot with its key unqueued - would
// strand it forever, because later enqueues for the key observe a non-empty
// slot and never publish. A rejected enqueue may withdraw values that
// concurrent producers folded into the same slot after the failed
// publication attempt.
//
// # Sentinel Termination
//
// Reserve one key for control traffic to signal stream end. The sentinel is
// enqueued once, is never conflated with data keys, and is observed by the
// consumer in publication order after all earlier first-publications:
//
//	q.Enqueue(sentinel, &stopMarker)
//
//	for {
//	    var key string
//	    v, err := q.PollKey(func(k string, _ *Tick) { key = k })
//	    if err != nil {
//	        continue
//	    }
//	    if key == sentinel {
//	        break
//	    }
//	    process(v)
//	}
//
// # Error Handling
//
// Queues return [ErrWouldBlock] when the backing ring is full (enqueue) or
// nothing is pending (poll). The error is a control flow signal sourced from
// [code.hybscloud.com/iox] for ecosystem consistency. [ErrUnknownKey]
// reports a key outside a declared or enum space. [ErrNilMerge] reports a
// merger that returned nil; the slot is left holding the newer value
// unmerged and the older value is returned for reuse. API misuse (nil
// values, nil mergers, undersized rings) panics at construction or call
// time; it is never reported as a runtime error.
//
// # Thread Safety
//
// Any number of goroutines may call Enqueue. Exactly one goroutine may call
// Poll, PollKey, and PollExchange. SingleProducer rings additionally require
// exactly one enqueueing goroutine. Listeners are invoked inline on the
// operating goroutine; stateful listeners must be thread-safe.
//
// # Race Detection
//
// The backing rings establish happens-before through atomix memory
// orderings the race detector cannot observe. Stress tests incompatible
// with race detection are excluded via //go:build !race; see the lfq package
// documentation for background.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit memory
// ordering, [code.hybscloud.com/spin] for CPU pause instructions, and
// [github.com/joeycumines/logiface] for the optional structured logging
// listeners.
package conflq
