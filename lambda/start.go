package lambda

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/oriys/go-lambda-runtime/internal/bootstrap"
	"github.com/oriys/go-lambda-runtime/internal/rtapi"
	"github.com/oriys/go-lambda-runtime/internal/rtlog"
	"github.com/oriys/go-lambda-runtime/lifecycle"
)

// config collects everything an Option can customize. Defaults match
// spec.md §4: JSON decoding, no user layers, a 2s cleanup budget.
type config struct {
	decoder         Decoder
	layers          []Layer
	hooks           lifecycle.Hooks
	cleanup         func(context.Context) error
	cleanupDeadline time.Duration
}

// Option configures a Runtime built by New, following the teacher's
// functional-options pattern (executor.Option in internal/executor).
type Option func(*config)

// WithDecoder overrides the default JSONDecoder, e.g. for a protobuf or
// msgpack event body.
func WithDecoder(d Decoder) Option {
	return func(c *config) { c.decoder = d }
}

// WithLayers installs user-supplied cross-cutting Services between the
// panic guard and the handler (spec.md §4.3 "optional user layers").
func WithLayers(layers ...Layer) Option {
	return func(c *config) { c.layers = append(c.layers, layers...) }
}

// WithCheckpointHook registers a lifecycle.CheckpointHook run across
// SnapStart checkpoint/restore transitions (spec.md §4.7 item 1).
func WithCheckpointHook(h lifecycle.CheckpointHook) Option {
	return func(c *config) { c.hooks.Register(h) }
}

// WithCleanup sets the function run during drain once the in-flight
// invocation (if any) finishes, bounded by deadline (spec.md §4.7 item 3).
func WithCleanup(deadline time.Duration, fn func(context.Context) error) Option {
	return func(c *config) {
		c.cleanup = fn
		c.cleanupDeadline = deadline
	}
}

// Runtime is the assembled, not-yet-running loop: the control API client,
// the composed pipeline, and the shutdown coordinator. New returns a
// Runtime so tests can drive Run without going through the process-exit
// path Start takes.
type Runtime struct {
	client      *rtapi.Client
	loop        *loop
	coordinator *lifecycle.Coordinator
	cfg         config
}

// New assembles a Runtime from the process environment (spec.md §4.5
// INIT). It does not contact the control API; the first call it makes is
// the loop's first GET next inside Run.
func New[TEvent, TResult any](handler Handler[TEvent, TResult], opts ...Option) (*Runtime, error) {
	desc, err := bootstrap.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("read runtime descriptor: %w", err)
	}

	cfg := config{
		decoder:         JSONDecoder{},
		cleanupDeadline: lifecycle.DefaultCleanupTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	client := rtapi.New(desc.RuntimeAPI)
	newEvent := func() any { var e TEvent; return &e }
	pipeline := buildPipeline(client, cfg.decoder, newEvent, handlerStage[TEvent, TResult](handler), cfg.layers...)

	coordinator := lifecycle.NewCoordinator(cfg.hooks)
	if err := coordinator.RunAfterRestore(context.Background()); err != nil {
		return nil, fmt.Errorf("run checkpoint hooks: %w", err)
	}

	return &Runtime{
		client:      client,
		loop:        newLoop(client, pipeline),
		coordinator: coordinator,
		cfg:         cfg,
	}, nil
}

// Coordinator exposes the lifecycle.Coordinator backing this Runtime, e.g.
// so an extension's Shutdown-event handler can call Shutdown() explicitly.
func (r *Runtime) Coordinator() *lifecycle.Coordinator {
	return r.coordinator
}

// Run drives POLLING/DISPATCHING until the shutdown token fires, then
// drains any in-flight invocation and runs the user cleanup function
// before returning (spec.md §4.5 SHUTDOWN, §4.7).
func (r *Runtime) Run() error {
	err := r.loop.Run(r.coordinator.Done())

	idle := make(chan struct{})
	go func() {
		r.loop.inflight <- struct{}{}
		<-r.loop.inflight
		close(idle)
	}()
	r.coordinator.Drain(context.Background(), idle, r.cfg.cleanupDeadline, r.cfg.cleanup)

	return err
}

// Start is the top-level entrypoint a function's main package calls,
// mirroring the teacher's cmd/comet daemon bootstrap: assemble, run,
// translate any bootstrap failure into a reported init error, exit
// non-zero on unrecoverable failure (spec.md §4.5 INIT: "On any error
// here, POST to /runtime/init/error with a diagnostic and exit non-zero").
func Start[TEvent, TResult any](handler Handler[TEvent, TResult], opts ...Option) {
	runtimeAPI := os.Getenv("AWS_LAMBDA_RUNTIME_API")

	rt, err := New[TEvent, TResult](handler, opts...)
	if err != nil {
		rtlog.Op().Error("runtime init failed", "error", err)
		if runtimeAPI != "" {
			client := rtapi.New(runtimeAPI)
			_ = postInitError(context.Background(), client, DiagnosticFromError(err))
		}
		os.Exit(1)
	}

	if err := rt.Run(); err != nil {
		rtlog.Op().Error("runtime loop exited with error", "error", err)
		os.Exit(1)
	}
}
