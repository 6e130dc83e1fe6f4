// Package lifecycle implements the graceful shutdown coordinator of
// spec.md §4.7: checkpoint/restore hooks, signal handling, in-flight
// drain, and bounded-time user cleanup.
package lifecycle

import (
	"context"
	"errors"
)

// CheckpointHook lets user code clear or regenerate state across a
// host-driven snapshot/restore transition (spec.md §4.7 item 1). The
// canonical use is closing and reopening pooled connections (see
// hooks/pgxhook) so no live socket crosses the snapshot.
type CheckpointHook interface {
	BeforeCheckpoint(ctx context.Context) error
	AfterRestore(ctx context.Context) error
}

// Hooks holds the ordered set of registered CheckpointHooks and runs them
// with the ordering guarantees of spec.md §4.7/§5 (P5): BeforeCheckpoint
// in reverse registration order, AfterRestore in forward order, errors
// from every hook collected rather than short-circuited.
type Hooks struct {
	hooks []CheckpointHook
}

// Register appends h to the registration order.
func (r *Hooks) Register(h CheckpointHook) {
	r.hooks = append(r.hooks, h)
}

// RunBeforeCheckpoint invokes every hook's BeforeCheckpoint in reverse
// registration order (r3, r2, r1 for registrations r1, r2, r3), joining
// all errors rather than stopping at the first.
func (r *Hooks) RunBeforeCheckpoint(ctx context.Context) error {
	var errs []error
	for i := len(r.hooks) - 1; i >= 0; i-- {
		if err := r.hooks[i].BeforeCheckpoint(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunAfterRestore invokes every hook's AfterRestore in forward
// registration order (r1, r2, r3), joining all errors rather than
// stopping at the first.
func (r *Hooks) RunAfterRestore(ctx context.Context) error {
	var errs []error
	for _, h := range r.hooks {
		if err := h.AfterRestore(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
