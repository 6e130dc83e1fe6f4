// Package extension implements the extension protocol state machine of
// spec.md §4.6: register, subscribe, long-poll, and dispatch Invoke and
// Shutdown events to a user-supplied observer, sharing the control API
// client (C1) with the invocation loop but otherwise running independently.
package extension

import "encoding/json"

// EventType names the two event classes an extension may subscribe to.
type EventType string

const (
	EventInvoke   EventType = "INVOKE"
	EventShutdown EventType = "SHUTDOWN"
)

// ShutdownReason is the reason field of a Shutdown event.
type ShutdownReason string

const (
	ReasonSpindown ShutdownReason = "SPINDOWN"
	ReasonTimeout  ShutdownReason = "TIMEOUT"
	ReasonFailure  ShutdownReason = "FAILURE"
)

// Event is the decoded body of GET /extension/event/next. Only the fields
// relevant to EventType are populated; Invoke and Shutdown are mutually
// exclusive views of the same wire object (spec.md §4.6 DISPATCH).
type Event struct {
	EventType EventType `json:"eventType"`

	// Invoke fields.
	RequestID      string `json:"requestId,omitempty"`
	InvokedFuncArn string `json:"invokedFunctionArn,omitempty"`
	DeadlineMs     int64  `json:"deadlineMs,omitempty"`
	Tracing        *struct {
		Type  string `json:"type,omitempty"`
		Value string `json:"value,omitempty"`
	} `json:"tracing,omitempty"`

	// Shutdown fields.
	ShutdownReason ShutdownReason `json:"shutdownReason,omitempty"`
}

func parseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
