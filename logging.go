// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq

import "github.com/joeycumines/logiface"

// LogAppenderListener emits a trace-level structured event per enqueue.
// The core hot path stays log-free; install this only when tracing
// conflation behavior, and gate it with the logger's level.
//
//	q := conflq.BuildEvict[string, Tick](b, keys,
//	    conflq.WithAppenderListener[string, Tick](
//	        conflq.NewLogAppenderListener[*stumpy.Event, string, Tick](logger)))
type LogAppenderListener[E logiface.Event, K comparable, V any] struct {
	log *logiface.Logger[E]
}

// NewLogAppenderListener returns an AppenderListenerFactory logging to log.
func NewLogAppenderListener[E logiface.Event, K comparable, V any](log *logiface.Logger[E]) AppenderListenerFactory[K, V] {
	return func() AppenderListener[K, V] {
		return &LogAppenderListener[E, K, V]{log: log}
	}
}

// OnEnqueue implements AppenderListener.
func (x *LogAppenderListener[E, K, V]) OnEnqueue(key K, _, displaced *V) {
	x.log.Trace().
		Interface(`key`, key).
		Bool(`conflated`, displaced != nil).
		Log(`conflq enqueue`)
}

// LogPollerListener emits a trace-level structured event per delivered
// value.
type LogPollerListener[E logiface.Event, K comparable, V any] struct {
	log *logiface.Logger[E]
}

// NewLogPollerListener returns a PollerListenerFactory logging to log.
func NewLogPollerListener[E logiface.Event, K comparable, V any](log *logiface.Logger[E]) PollerListenerFactory[K, V] {
	return func() PollerListener[K, V] {
		return &LogPollerListener[E, K, V]{log: log}
	}
}

// OnPoll implements PollerListener.
func (x *LogPollerListener[E, K, V]) OnPoll(key K, _ *V) {
	x.log.Trace().
		Interface(`key`, key).
		Log(`conflq poll`)
}
