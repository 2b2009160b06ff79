// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq_test

import (
	"testing"

	"github.com/joeycumines/logiface"

	"code.hybscloud.com/conflq"
)

// =============================================================================
// Listeners
// =============================================================================

// TestCountListener verifies enqueue/conflation/poll accounting through the
// listener factories.
func TestCountListener(t *testing.T) {
	counts := &conflq.CountListener[string, int]{}
	q := conflq.BuildEvict[string, int](conflq.New(8), conflq.DeclaredKeys("a", "b"),
		conflq.WithAppenderListener[string, int](counts.Appender),
		conflq.WithPollerListener[string, int](counts.Poller),
	)

	for _, k := range []string{"a", "b", "a", "a"} {
		v := 1
		if _, err := q.Enqueue(k, &v); err != nil {
			t.Fatalf("Enqueue(%s): %v", k, err)
		}
	}
	for {
		if _, err := q.Poll(); err != nil {
			break
		}
	}

	if got := counts.Enqueues(); got != 4 {
		t.Fatalf("Enqueues: got %d, want 4", got)
	}
	if got := counts.Conflations(); got != 2 {
		t.Fatalf("Conflations: got %d, want 2", got)
	}
	if got := counts.Polls(); got != 2 {
		t.Fatalf("Polls: got %d, want 2", got)
	}
}

// TestListenerFactoryPerQueue verifies factories run once per queue
// construction, not per event.
func TestListenerFactoryPerQueue(t *testing.T) {
	var built int
	factory := func() conflq.AppenderListener[string, int] {
		built++
		return conflq.NoopAppenderListener[string, int]()
	}

	for range 3 {
		q := conflq.BuildOverwrite[string, int](conflq.New(4), conflq.DeclaredKeys("a"),
			conflq.WithAppenderListener[string, int](factory))
		v := 1
		if _, err := q.Enqueue("a", &v); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	if built != 3 {
		t.Fatalf("factory invocations: got %d, want 3", built)
	}
}

// =============================================================================
// Logging Listeners (logiface)
// =============================================================================

// logEvent is a minimal logiface backend capturing events in memory.
type logEvent struct {
	logiface.UnimplementedEvent
	lvl    logiface.Level
	fields map[string]any
	msg    string
}

func (e *logEvent) Level() logiface.Level     { return e.lvl }
func (e *logEvent) AddField(k string, v any)  { e.fields[k] = v }
func (e *logEvent) AddMessage(msg string) bool { e.msg = msg; return true }

// TestLogListeners verifies the logiface listeners emit one structured
// event per enqueue and per poll.
func TestLogListeners(t *testing.T) {
	var events []*logEvent
	logger := logiface.New[*logEvent](
		logiface.WithEventFactory[*logEvent](logiface.EventFactoryFunc[*logEvent](func(lvl logiface.Level) *logEvent {
			return &logEvent{lvl: lvl, fields: map[string]any{}}
		})),
		logiface.WithWriter[*logEvent](logiface.WriterFunc[*logEvent](func(e *logEvent) error {
			events = append(events, e)
			return nil
		})),
		logiface.WithLevel[*logEvent](logiface.LevelTrace),
	)

	q := conflq.BuildEvict[string, int](conflq.New(4), conflq.DeclaredKeys("a"),
		conflq.WithAppenderListener[string, int](conflq.NewLogAppenderListener[*logEvent, string, int](logger)),
		conflq.WithPollerListener[string, int](conflq.NewLogPollerListener[*logEvent, string, int](logger)),
	)

	v1, v2 := 1, 2
	if _, err := q.Enqueue("a", &v1); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Enqueue("a", &v2); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if len(events) != 3 {
		t.Fatalf("events: got %d, want 3", len(events))
	}
	if events[0].msg != "conflq enqueue" || events[0].fields["key"] != "a" || events[0].fields["conflated"] != false {
		t.Fatalf("first enqueue event: got %q %v", events[0].msg, events[0].fields)
	}
	if events[1].fields["conflated"] != true {
		t.Fatalf("second enqueue event: conflated got %v, want true", events[1].fields["conflated"])
	}
	if events[2].msg != "conflq poll" || events[2].fields["key"] != "a" {
		t.Fatalf("poll event: got %q %v", events[2].msg, events[2].fields)
	}
}
