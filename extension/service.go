package extension

import "context"

// Readiness mirrors lambda.Readiness: the extension Service contract
// follows the same poll_ready/call split as the invocation pipeline
// (spec.md §4.3, §4.6), applied here to extension events instead of
// invocation frames.
type Readiness int

const (
	NotReady Readiness = iota
	Ready
	ReadyErr
)

// Service is the user-supplied observer an Agent dispatches Invoke and
// Shutdown events to. An error returned from Call is reported to the
// control API as an extension error (init/error for Invoke, exit/error
// for Shutdown; spec.md §4.6 "Error reporting").
type Service interface {
	PollReady(ctx context.Context) (Readiness, error)
	Call(ctx context.Context, ev *Event) error
}

// ServiceFunc adapts a plain function into an always-ready Service.
type ServiceFunc func(ctx context.Context, ev *Event) error

func (f ServiceFunc) PollReady(ctx context.Context) (Readiness, error) {
	return Ready, nil
}

func (f ServiceFunc) Call(ctx context.Context, ev *Event) error {
	return f(ctx, ev)
}
