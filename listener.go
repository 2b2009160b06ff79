// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import "code.hybscloud.com/atomix"

// AppenderListener observes enqueue operations. Invoked inline on the
// enqueueing goroutine, synchronously with the event, after the slot and
// ring transitions completed. Listeners must not mutate the queue; stateful
// listeners must be thread-safe.
type AppenderListener[K comparable, V any] interface {
	// OnEnqueue reports a completed enqueue. value is the value now
	// pending for key (the merge result in merge mode); displaced is the
	// value it physically replaced in the slot, nil if the slot was empty.
	OnEnqueue(key K, value, displaced *V)
}

// PollerListener observes poll operations. Invoked inline on the polling
// goroutine before Poll returns.
type PollerListener[K comparable, V any] interface {
	// OnPoll reports a delivered value.
	OnPoll(key K, value *V)
}

// AppenderListenerFactory supplies a listener at queue construction.
// Factories rather than bare listeners let multi-queue setups hand a fresh
// instance to each queue.
type AppenderListenerFactory[K comparable, V any] func() AppenderListener[K, V]

// PollerListenerFactory supplies a poller listener at queue construction.
type PollerListenerFactory[K comparable, V any] func() PollerListener[K, V]

type noopAppenderListener[K comparable, V any] struct{}

func (noopAppenderListener[K, V]) OnEnqueue(K, *V, *V) {}

type noopPollerListener[K comparable, V any] struct{}

func (noopPollerListener[K, V]) OnPoll(K, *V) {}

// NoopAppenderListener returns a listener that ignores every event.
func NoopAppenderListener[K comparable, V any]() AppenderListener[K, V] {
	return noopAppenderListener[K, V]{}
}

// NoopPollerListener returns a listener that ignores every event.
func NoopPollerListener[K comparable, V any]() PollerListener[K, V] {
	return noopPollerListener[K, V]{}
}

// CountListener counts enqueues, conflations, and polls. It implements both
// AppenderListener and PollerListener and is safe for concurrent use.
//
//	counts := &conflq.CountListener[string, Tick]{}
//	q := conflq.BuildEvict[string, Tick](conflq.New(8), keys,
//	    conflq.WithAppenderListener[string, Tick](counts.Appender),
//	    conflq.WithPollerListener[string, Tick](counts.Poller),
//	)
type CountListener[K comparable, V any] struct {
	enqueues    atomix.Int64
	conflations atomix.Int64
	polls       atomix.Int64
}

// OnEnqueue implements AppenderListener.
func (x *CountListener[K, V]) OnEnqueue(_ K, _, displaced *V) {
	x.enqueues.Add(1)
	if displaced != nil {
		x.conflations.Add(1)
	}
}

// OnPoll implements PollerListener.
func (x *CountListener[K, V]) OnPoll(K, *V) {
	x.polls.Add(1)
}

// Appender is an AppenderListenerFactory returning x itself.
func (x *CountListener[K, V]) Appender() AppenderListener[K, V] { return x }

// Poller is a PollerListenerFactory returning x itself.
func (x *CountListener[K, V]) Poller() PollerListener[K, V] { return x }

// Enqueues returns the number of observed enqueues.
func (x *CountListener[K, V]) Enqueues() int64 { return x.enqueues.Load() }

// Conflations returns the number of enqueues that displaced a pending value.
func (x *CountListener[K, V]) Conflations() int64 { return x.conflations.Load() }

// Polls returns the number of delivered values.
func (x *CountListener[K, V]) Polls() int64 { return x.polls.Load() }
