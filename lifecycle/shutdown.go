package lifecycle

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/oriys/go-lambda-runtime/internal/rtlog"
)

// DefaultCleanupTimeout bounds the user cleanup task when no per-event
// deadline is available (spec.md §4.7 item 3).
const DefaultCleanupTimeout = 2 * time.Second

// Coordinator wires signal handling to a shutdown token the invocation
// loop and extension subsystem select on, and drives the drain sequence
// once that token fires.
type Coordinator struct {
	hooks Hooks

	shutdownCtx context.Context
	cancel      context.CancelFunc
	stopSignals func()
}

// NewCoordinator installs SIGINT/SIGTERM listeners that cancel the
// returned context, matching the teacher's
// signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM) daemon pattern.
// hooks is the set of checkpoint/restore hooks registered at assembly time
// (spec.md §4.7 item 1); it runs AfterRestore at RunAfterRestore and
// BeforeCheckpoint as part of Drain.
func NewCoordinator(hooks Hooks) *Coordinator {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cctx, cancel := context.WithCancel(ctx)
	return &Coordinator{
		hooks:       hooks,
		shutdownCtx: cctx,
		cancel:      cancel,
		stopSignals: stop,
	}
}

// RunAfterRestore runs the registered checkpoint hooks' AfterRestore step
// in forward registration order (spec.md §4.5 INIT: "run init-time user
// checkpoint hooks").
func (c *Coordinator) RunAfterRestore(ctx context.Context) error {
	return c.hooks.RunAfterRestore(ctx)
}

// Done returns the context the invocation loop polls against; it is
// cancelled on SIGINT/SIGTERM or an explicit call to Shutdown.
func (c *Coordinator) Done() context.Context {
	return c.shutdownCtx
}

// Shutdown triggers the shutdown token explicitly, e.g. in response to an
// extension-delivered Shutdown event (spec.md §4.6).
func (c *Coordinator) Shutdown() {
	c.cancel()
}

// Drain waits for the in-flight DISPATCHING future (if any) to complete —
// unbounded, since per spec.md §5 "Cancellation" the shutdown token never
// cancels a dispatch in progress — then runs BeforeCheckpoint hooks and the
// user cleanup task under deadline, abandoning cleanup on expiry (spec.md
// §4.7 items 1 and 3). It mirrors the teacher's Executor.Shutdown: the
// cleanup runs in a goroutine whose result is raced against the cleanup
// context's deadline; the in-flight wait itself has no deadline.
func (c *Coordinator) Drain(ctx context.Context, inflightDone <-chan struct{}, deadline time.Duration, cleanup func(context.Context) error) {
	defer c.stopSignals()

	<-inflightDone
	rtlog.Op().Info("in-flight invocation completed, draining")

	if err := c.hooks.RunBeforeCheckpoint(ctx); err != nil {
		rtlog.Op().Error("checkpoint hook returned error", "error", err)
	}

	if cleanup == nil {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cleanup(cleanupCtx) }()

	select {
	case err := <-done:
		if err != nil {
			rtlog.Op().Error("user cleanup returned error", "error", err)
		}
	case <-cleanupCtx.Done():
		rtlog.Op().Warn("user cleanup abandoned: deadline expired", "deadline", deadline)
	}
}
