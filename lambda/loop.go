package lambda

import (
	"context"
	"fmt"
	"os"

	"github.com/oriys/go-lambda-runtime/internal/rtapi"
	"github.com/oriys/go-lambda-runtime/internal/rtlog"
	"github.com/oriys/go-lambda-runtime/internal/rtmetrics"
	"github.com/oriys/go-lambda-runtime/internal/tracepropagation"
)

// loop drives the INIT → READY → POLLING → DISPATCHING → REPORTING state
// machine of spec.md §4.5. It is the only place that issues GET next and
// the only place that sets/clears the ambient trace-id slot.
type loop struct {
	client       *rtapi.Client
	pipeline     Service
	traceEnvVar  string
	inflight     chan struct{} // capacity 1: the in-flight gate (spec.md §5)
	initReported bool
}

func newLoop(client *rtapi.Client, pipeline Service) *loop {
	return &loop{
		client:   client,
		pipeline: pipeline,
		inflight: make(chan struct{}, 1),
	}
}

// Run executes the loop until ctx is cancelled (the shutdown token,
// spec.md §4.7). It never returns an error for steady-state operation:
// transport errors during POLLING are logged and retried; only an
// unrecoverable malformed next-event response is fatal, reported to
// /runtime/init/error when it happens before the first successful poll.
func (l *loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		envelope, err := l.poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			rtlog.Op().Error("next-event poll failed", "error", err)
			rtmetrics.RecordTransportError("/runtime/invocation/next")
			continue
		}
		if envelope == nil {
			// Cancelled mid-poll.
			return nil
		}

		l.initReported = true // a successful GET next disarms /init/error

		// dispatch intentionally runs against a context independent of
		// the shutdown signal: per spec.md §5 "Cancellation", the
		// shutdown token cancels the POLLING await but must NOT cancel an
		// in-flight DISPATCHING future. Since Run drives POLLING and
		// DISPATCHING sequentially on one goroutine, the current
		// dispatch always finishes before the next ctx.Done() check.
		l.dispatch(context.Background(), envelope)
	}
}

// poll issues a single GET /runtime/invocation/next, retried once on a
// connection-level failure (SPEC_FULL.md §3). It is cancellable by ctx (the
// shutdown signal) even though the call itself may block arbitrarily long
// (spec.md §4.5 POLLING).
func (l *loop) poll(ctx context.Context) (*Invocation, error) {
	resp, err := l.client.CallWithRetry(ctx, &rtapi.Request{
		Method: "GET",
		Path:   "/runtime/invocation/next",
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, err
	}

	envelope, err := NewInvocation(resp.Headers, resp.Body)
	if err != nil {
		// Missing Lambda-Runtime-Aws-Request-Id: fatal per spec.md §4.5.
		diag := DiagnosticFromError(fmt.Errorf("malformed next-event response: %w", err))
		if !l.initReported {
			_ = postInitError(ctx, l.client, diag)
		}
		rtlog.Op().Error("fatal: malformed next-event response", "error", err)
		os.Exit(1)
	}
	return envelope, nil
}

// dispatch drives one invocation through the pipeline end to end,
// maintaining the in-flight gate (DISPATCHING) and the ambient trace-id
// slot (P6), and guaranteeing exactly one /response or /error POST (P3)
// even if a panic escapes every inner stage (P4).
func (l *loop) dispatch(ctx context.Context, envelope *Invocation) {
	l.inflight <- struct{}{}
	defer func() { <-l.inflight }()

	traceCtx := tracepropagation.Inject(ctx, tracepropagation.TraceContext{
		TraceParent: envelope.TraceParent,
		TraceState:  envelope.TraceState,
	})
	setAmbientTraceID(envelope.TraceParent)
	defer clearAmbientTraceID()

	f := newFrame(envelope)

	outcome := "response"
	defer func() {
		if r := recover(); r != nil {
			// The inner panic guard (spec.md §4.4.2) already covers the
			// deserializer+handler path; this is the last-resort net for
			// a panic in the serializer or API client stage themselves
			// (spec.md §4.5 "the outer panic guard wins").
			diag := DiagnosticFromPanic(r)
			rtlog.Op().Error("panic escaped pipeline, reporting directly", "request_id", envelope.RequestID, "message", diag.ErrorMessage)
			_, _ = l.client.Call(ctx, &rtapi.Request{
				Method: "POST",
				Path:   "/runtime/invocation/" + envelope.RequestID + "/error",
				Headers: map[string]string{
					"Content-Type":          "application/json",
					headerFunctionErrorType: diag.ErrorType,
				},
				Body: mustMarshalDiagnostic(diag),
			})
			rtmetrics.RecordInvocation("panic")
			return
		}
		rtmetrics.RecordInvocation(outcome)
	}()

	f, _ = l.pipeline.Call(traceCtx, f)
	if f.diagnostic != nil {
		outcome = "error"
		if f.diagnostic.ErrorType == ErrorTypePanic {
			outcome = "panic"
		}
	}
}

func mustMarshalDiagnostic(d *Diagnostic) []byte {
	body, err := marshalDiagnostic(d)
	if err != nil {
		return []byte(`{"errorType":"Panic","errorMessage":"unrecoverable"}`)
	}
	return body
}
