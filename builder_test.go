// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package conflq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/conflq"
)

// =============================================================================
// Builder
// =============================================================================

func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", name)
		}
	}()
	fn()
}

// TestBuilderValidation verifies misconfiguration panics at construction.
func TestBuilderValidation(t *testing.T) {
	mustPanic(t, "New(1)", func() { conflq.New(1) })
	mustPanic(t, "DeclaredKeys()", func() { conflq.DeclaredKeys[string]() })
	mustPanic(t, "duplicate declared key", func() { conflq.DeclaredKeys("a", "a") })
	mustPanic(t, "EnumKeys(0)", func() { conflq.EnumKeys[int](0) })
	mustPanic(t, "undersized ring", func() {
		conflq.BuildOverwrite[string, int](conflq.New(3), conflq.DeclaredKeys("a", "b", "c"))
	})
}

// TestBuilderRingSelection smoke-tests each builder-selected ring through
// the same enqueue/poll sequence.
func TestBuilderRingSelection(t *testing.T) {
	builders := []struct {
		name string
		make func() *conflq.Evict[string, int]
	}{
		{"default", func() *conflq.Evict[string, int] {
			return conflq.BuildEvict[string, int](conflq.New(8), conflq.DeclaredKeys("a", "b", "c"))
		}},
		{"compact", func() *conflq.Evict[string, int] {
			return conflq.BuildEvict[string, int](conflq.New(8).Compact(), conflq.DeclaredKeys("a", "b", "c"))
		}},
		{"single producer", func() *conflq.Evict[string, int] {
			return conflq.BuildEvict[string, int](conflq.New(8).SingleProducer(), conflq.DeclaredKeys("a", "b", "c"))
		}},
		{"lenshood ring", func() *conflq.Evict[string, int] {
			return conflq.BuildEvict[string, int](conflq.New(8), conflq.DeclaredKeys("a", "b", "c"),
				conflq.WithKeyQueue[string, int](func() conflq.KeyQueue[string] {
					return conflq.NewLFRing[string](8)
				}))
		}},
	}

	for _, b := range builders {
		q := b.make()

		for i, k := range []string{"a", "b", "c", "a"} {
			v := i
			if _, err := q.Enqueue(k, &v); err != nil {
				t.Fatalf("%s: Enqueue(%s): %v", b.name, k, err)
			}
		}

		want := []struct {
			key string
			val int
		}{{"a", 3}, {"b", 1}, {"c", 2}}
		for i, w := range want {
			var key string
			v, err := q.PollKey(func(k string, _ *int) { key = k })
			if err != nil {
				t.Fatalf("%s: PollKey(%d): %v", b.name, i, err)
			}
			if key != w.key || *v != w.val {
				t.Fatalf("%s: PollKey(%d): got (%s, %d), want (%s, %d)", b.name, i, key, *v, w.key, w.val)
			}
		}
		if _, err := q.Poll(); !errors.Is(err, conflq.ErrWouldBlock) {
			t.Fatalf("%s: Poll on drained: got %v, want ErrWouldBlock", b.name, err)
		}
	}
}

// =============================================================================
// Full Ring - Rollback Policy
// =============================================================================

// TestFullRingRollback verifies the documented full-ring policy: the
// rejected enqueue withdraws its value from the slot, hands it back (evict),
// and leaves the queue consistent - the key is pollable again later.
func TestFullRingRollback(t *testing.T) {
	// Open key space with a deliberately undersized ring: capacity 2, three
	// distinct keys pending.
	q := conflq.BuildEvict[string, int](conflq.New(2), conflq.OpenKeys[string]())

	v1, v2, v3 := 1, 2, 3
	if _, err := q.Enqueue("a", &v1); err != nil {
		t.Fatalf("Enqueue(a): %v", err)
	}
	if _, err := q.Enqueue("b", &v2); err != nil {
		t.Fatalf("Enqueue(b): %v", err)
	}

	hb, err := q.Enqueue("c", &v3)
	if !errors.Is(err, conflq.ErrWouldBlock) {
		t.Fatalf("Enqueue(c) on full ring: got %v, want ErrWouldBlock", err)
	}
	if hb != &v3 {
		t.Fatalf("Enqueue(c) rollback: handback %p, want the withdrawn value %p", hb, &v3)
	}

	// The rejected key left no residue: the first poll yields a,
	// re-enqueueing c after that poll freed ring space succeeds, and the
	// drain then yields b and c once each.
	if v, err := q.Poll(); err != nil || *v != 1 {
		t.Fatalf("Poll: got (%v, %v), want (1, nil)", v, err)
	}
	if _, err := q.Enqueue("c", &v3); err != nil {
		t.Fatalf("Enqueue(c) after free: %v", err)
	}

	var keys []string
	for {
		_, err := q.PollKey(func(k string, _ *int) { keys = append(keys, k) })
		if err != nil {
			break
		}
	}
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "c" {
		t.Fatalf("drained keys: got %v, want [b c]", keys)
	}
}

// TestFullRingRollbackOverwrite verifies the overwrite engine reports the
// rejection and drops the withdrawn value.
func TestFullRingRollbackOverwrite(t *testing.T) {
	q := conflq.BuildOverwrite[string, int](conflq.New(2), conflq.OpenKeys[string]())

	for i, k := range []string{"a", "b"} {
		v := i
		if _, err := q.Enqueue(k, &v); err != nil {
			t.Fatalf("Enqueue(%s): %v", k, err)
		}
	}
	v := 9
	hb, err := q.Enqueue("c", &v)
	if !errors.Is(err, conflq.ErrWouldBlock) {
		t.Fatalf("Enqueue(c): got %v, want ErrWouldBlock", err)
	}
	if hb != nil {
		t.Fatalf("Enqueue(c): overwrite handback %p, want nil", hb)
	}
}
