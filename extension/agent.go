package extension

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oriys/go-lambda-runtime/internal/rtapi"
	"github.com/oriys/go-lambda-runtime/internal/rtlog"
	"github.com/oriys/go-lambda-runtime/internal/rtmetrics"
)

const (
	headerExtensionName       = "Lambda-Extension-Name"
	headerExtensionIdentifier = "Lambda-Extension-Identifier"
	headerFunctionErrorType   = "Lambda-Extension-Function-Error-Type"
)

// ErrProtocolViolation tags a fatal extension protocol violation: an
// internal extension (subscribed to INVOKE only) that receives a
// Shutdown event (spec.md §4.6, P7).
var ErrProtocolViolation = errors.New("extension protocol violation")

// Agent drives one extension's REGISTER → SUBSCRIBED → LONG-POLL →
// DISPATCH state machine (spec.md §4.6). It shares a *rtapi.Client with
// the invocation loop but otherwise runs independently in its own
// goroutine.
type Agent struct {
	client *rtapi.Client
	name   string
	events []EventType

	identifier string
}

// NewAgent builds an unregistered Agent. name identifies the extension to
// the control API; events is the subscription set (a subset of
// {INVOKE, SHUTDOWN}).
func NewAgent(client *rtapi.Client, name string, events ...EventType) *Agent {
	return &Agent{client: client, name: name, events: events}
}

type registerRequest struct {
	Events []EventType `json:"events"`
}

// Register issues POST /extension/register and captures the
// Lambda-Extension-Identifier response header for every subsequent
// request (spec.md §4.6 REGISTER).
func (a *Agent) Register(ctx context.Context) error {
	body, err := json.Marshal(registerRequest{Events: a.events})
	if err != nil {
		return fmt.Errorf("marshal register body: %w", err)
	}

	resp, err := a.client.Call(ctx, &rtapi.Request{
		Method: "POST",
		Path:   "/extension/register",
		Headers: map[string]string{
			"Content-Type":      "application/json",
			headerExtensionName: a.name,
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("register extension: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("register extension: control api returned status %d", resp.StatusCode)
	}

	a.identifier = resp.Headers.Get(headerExtensionIdentifier)
	if a.identifier == "" {
		return fmt.Errorf("register extension: control api did not return %s", headerExtensionIdentifier)
	}
	return nil
}

// subscribesToShutdown reports whether this extension subscribed to
// SHUTDOWN, used to enforce the P7 internal-only invariant.
func (a *Agent) subscribesToShutdown() bool {
	for _, e := range a.events {
		if e == EventShutdown {
			return true
		}
	}
	return false
}

// Run long-polls /extension/event/next and dispatches each event to svc
// until ctx is cancelled or a Shutdown event is processed (spec.md §4.6
// LONG-POLL/DISPATCH/EXIT). It returns nil on a clean Shutdown-driven
// exit, or the first ErrProtocolViolation / transport error otherwise.
func (a *Agent) Run(ctx context.Context, svc Service) error {
	for {
		ev, err := a.next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			rtlog.Op().Error("extension event poll failed", "extension", a.name, "error", err)
			rtmetrics.RecordTransportError("/extension/event/next")
			return err
		}

		if ev.EventType == EventShutdown && !a.subscribesToShutdown() {
			diag := fmt.Sprintf("extension %q subscribed to INVOKE only but received a Shutdown event", a.name)
			rtlog.Op().Error("extension protocol violation", "extension", a.name, "detail", diag)
			_ = a.reportExitError(ctx, "ExtensionProtocolError")
			return fmt.Errorf("%w: %s", ErrProtocolViolation, diag)
		}

		rtmetrics.RecordExtensionEvent(string(ev.EventType))

		callErr := svc.Call(ctx, ev)
		if callErr != nil {
			rtlog.Op().Error("extension service returned error", "extension", a.name, "event", ev.EventType, "error", callErr)
			if ev.EventType == EventShutdown {
				_ = a.reportExitError(ctx, "Error")
			} else {
				_ = a.reportInitError(ctx, "Error")
			}
		}

		if ev.EventType == EventShutdown {
			return nil
		}
	}
}

func (a *Agent) next(ctx context.Context) (*Event, error) {
	resp, err := a.client.Call(ctx, &rtapi.Request{
		Method: "GET",
		Path:   "/extension/event/next",
		Headers: map[string]string{
			headerExtensionIdentifier: a.identifier,
		},
	})
	if err != nil {
		return nil, err
	}
	return parseEvent(resp.Body)
}

// reportInitError POSTs /extension/init/error, used when the extension
// service errors processing an Invoke event (spec.md §4.6 "Error
// reporting").
func (a *Agent) reportInitError(ctx context.Context, errorType string) error {
	return a.reportError(ctx, "/extension/init/error", errorType)
}

// reportExitError POSTs /extension/exit/error, used for Shutdown-event
// failures and protocol violations.
func (a *Agent) reportExitError(ctx context.Context, errorType string) error {
	return a.reportError(ctx, "/extension/exit/error", errorType)
}

func (a *Agent) reportError(ctx context.Context, path, errorType string) error {
	_, err := a.client.Call(ctx, &rtapi.Request{
		Method: "POST",
		Path:   path,
		Headers: map[string]string{
			headerExtensionIdentifier: a.identifier,
			headerFunctionErrorType:   errorType,
		},
	})
	return err
}
