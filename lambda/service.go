package lambda

import "context"

// Readiness is the result of polling a Service for readiness to accept a
// call, mirroring the poll_ready/call split of spec.md §4.3: backpressure
// is expressed by returning NotReady rather than blocking inside Call.
type Readiness int

const (
	// NotReady means Call must not yet be invoked; the caller should poll
	// again before its next Call.
	NotReady Readiness = iota
	// Ready means a prior successful poll authorizes exactly one Call.
	Ready
	// ReadyErr means the service itself is permanently broken; callers
	// should propagate the error rather than calling.
	ReadyErr
)

// Service is the single abstraction every pipeline stage and the
// top-level loop consumer implements. Call must not be invoked unless the
// most recently observed PollReady result was Ready. The stages in this
// package are ServiceFuncs (always Ready) or forward PollReady to the
// Service they wrap; no stage keeps readiness state of its own, and the
// stage wrappers in pipeline.go and the loop invoke Call without polling
// PollReady first, so a NotReady reported by a user Layer is not observed.
type Service interface {
	// PollReady reports whether the service can currently accept a Call.
	PollReady(ctx context.Context) (Readiness, error)
	// Call drives one frame through this stage and returns the frame with
	// this stage's transformation applied. Calling it without a prior
	// Ready observation is undefined; implementations may panic.
	Call(ctx context.Context, f *frame) (*frame, error)
}

// Layer adds one cross-cutting concern to a Service, producing a new
// Service that wraps it. Composing layers outermost-first builds the
// pipeline described in spec.md §4.3.
type Layer func(next Service) Service

// chain applies layers to base, outermost layer first, matching the
// composition order of spec.md §4.3 (API client stage, then response
// serializer, then panic guard, then deserializer, then optional user
// layers, with the handler as the innermost/leaf Service).
func chain(base Service, layers ...Layer) Service {
	svc := base
	for i := len(layers) - 1; i >= 0; i-- {
		svc = layers[i](svc)
	}
	return svc
}

// ServiceFunc adapts a plain function into a Service that is always ready.
// Used for stages with no readiness state of their own.
type ServiceFunc func(ctx context.Context, f *frame) (*frame, error)

func (f ServiceFunc) PollReady(ctx context.Context) (Readiness, error) {
	return Ready, nil
}

func (sf ServiceFunc) Call(ctx context.Context, f *frame) (*frame, error) {
	return sf(ctx, f)
}
