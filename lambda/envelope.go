package lambda

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Header names the control API sets on the GET /runtime/invocation/next
// response. Bit-exact per the control API contract.
const (
	headerRequestID  = "Lambda-Runtime-Aws-Request-Id"
	headerDeadlineMs = "Lambda-Runtime-Deadline-Ms"
	headerInvokedArn = "Lambda-Runtime-Invoked-Function-Arn"
	headerTraceID    = "Lambda-Runtime-Trace-Id"
	headerClientCtx  = "Lambda-Runtime-Client-Context"
	headerIdentity   = "Lambda-Runtime-Cognito-Identity"
)

// Invocation is the immutable per-request context built from a next-event
// response. It is constructed once by the loop and never mutated; at most
// one pipeline run exists per Invocation.
type Invocation struct {
	RequestID       string
	DeadlineMs      uint64
	InvokedResource string
	TraceParent     string
	TraceState      string
	clientContext   json.RawMessage
	identity        json.RawMessage
	Payload         []byte
}

// Deadline returns the wall-clock instant past which the host will reclaim
// the worker.
func (inv *Invocation) Deadline() time.Time {
	return time.UnixMilli(int64(inv.DeadlineMs))
}

// ClientContext lazily decodes the optional client-context header into v.
// Returns nil without touching v if the header was absent.
func (inv *Invocation) ClientContext(v any) error {
	if len(inv.clientContext) == 0 {
		return nil
	}
	return json.Unmarshal(inv.clientContext, v)
}

// Identity lazily decodes the optional Cognito identity header into v.
// Returns nil without touching v if the header was absent.
func (inv *Invocation) Identity(v any) error {
	if len(inv.identity) == 0 {
		return nil
	}
	return json.Unmarshal(inv.identity, v)
}

// NewInvocation builds an Invocation from the GET next response. It is the
// sole constructor: the request id is validated non-empty here so every
// other component can assume it.
func NewInvocation(header http.Header, body []byte) (*Invocation, error) {
	requestID := header.Get(headerRequestID)
	if requestID == "" {
		return nil, fmt.Errorf("missing required header %s", headerRequestID)
	}

	var deadlineMs uint64
	if raw := header.Get(headerDeadlineMs); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", headerDeadlineMs, err)
		}
		deadlineMs = parsed
	}

	traceParent, traceState := parseTraceHeader(header.Get(headerTraceID))

	var clientCtx json.RawMessage
	if raw := header.Get(headerClientCtx); raw != "" {
		clientCtx = json.RawMessage(raw)
	}
	var identity json.RawMessage
	if raw := header.Get(headerIdentity); raw != "" {
		identity = json.RawMessage(raw)
	}

	return &Invocation{
		RequestID:       requestID,
		DeadlineMs:      deadlineMs,
		InvokedResource: header.Get(headerInvokedArn),
		TraceParent:     traceParent,
		TraceState:      traceState,
		clientContext:   clientCtx,
		identity:        identity,
		Payload:         body,
	}, nil
}

// parseTraceHeader splits the Lambda-Runtime-Trace-Id header's raw value
// into a traceparent and tracestate. The control API sends the X-Ray style
// "Root=...;Parent=...;Sampled=..." form verbatim; it is carried through
// unmodified as the traceparent for downstream propagation rather than
// re-encoded, since the exact wire format is an external contract.
func parseTraceHeader(raw string) (traceParent, traceState string) {
	if raw == "" {
		return "", ""
	}
	return raw, ""
}
