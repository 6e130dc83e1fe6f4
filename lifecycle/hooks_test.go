package lifecycle

import (
	"context"
	"errors"
	"testing"
)

type recordingHook struct {
	name      string
	order     *[]string
	failCheck bool
	failAfter bool
}

func (h *recordingHook) BeforeCheckpoint(ctx context.Context) error {
	*h.order = append(*h.order, "before:"+h.name)
	if h.failCheck {
		return errors.New(h.name + " before failed")
	}
	return nil
}

func (h *recordingHook) AfterRestore(ctx context.Context) error {
	*h.order = append(*h.order, "after:"+h.name)
	if h.failAfter {
		return errors.New(h.name + " after failed")
	}
	return nil
}

func TestRunBeforeCheckpointIsReverseOrder(t *testing.T) {
	var order []string
	var hooks Hooks
	hooks.Register(&recordingHook{name: "a", order: &order})
	hooks.Register(&recordingHook{name: "b", order: &order})
	hooks.Register(&recordingHook{name: "c", order: &order})

	if err := hooks.RunBeforeCheckpoint(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"before:c", "before:b", "before:a"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRunAfterRestoreIsForwardOrder(t *testing.T) {
	var order []string
	var hooks Hooks
	hooks.Register(&recordingHook{name: "a", order: &order})
	hooks.Register(&recordingHook{name: "b", order: &order})

	if err := hooks.RunAfterRestore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"after:a", "after:b"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestRunBeforeCheckpointJoinsAllErrors(t *testing.T) {
	var order []string
	var hooks Hooks
	hooks.Register(&recordingHook{name: "a", order: &order, failCheck: true})
	hooks.Register(&recordingHook{name: "b", order: &order, failCheck: true})

	err := hooks.RunBeforeCheckpoint(context.Background())
	if err == nil {
		t.Fatal("expected a joined error")
	}
	// Both hooks must have run despite "a" (run second, reverse order)
	// failing: errors are collected, not short-circuited.
	if len(order) != 2 {
		t.Fatalf("expected both hooks to run, got %v", order)
	}
}
