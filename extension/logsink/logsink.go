// Package logsink implements the optional log/telemetry receiver of
// spec.md §4.6: an extension registers a destination URL with the control
// API, and the core runs a minimal HTTP server accepting POSTed batches
// and handing them to a user-supplied Sink.
package logsink

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/oriys/go-lambda-runtime/internal/rtapi"
	"github.com/oriys/go-lambda-runtime/internal/rtlog"
)

// Schema selects which subscription wire format to PUT: the older logs
// API or the newer telemetry API. Both deliver the same kind of batch to
// this package's HTTP server; only the control-plane registration path
// and schema version differ.
type Schema string

const (
	SchemaLogs      Schema = "2021-03-18"
	SchemaTelemetry Schema = "2022-07-01"
)

// BufferingConfig bounds how the host batches records before delivering
// them, clamped to the ranges spec.md §4.6 gives (P8).
type BufferingConfig struct {
	TimeoutMs int `json:"timeoutMs"`
	MaxBytes  int `json:"maxBytes"`
	MaxItems  int `json:"maxItems"`
}

// DefaultBuffering returns the spec's documented defaults.
func DefaultBuffering() BufferingConfig {
	return BufferingConfig{TimeoutMs: 1000, MaxBytes: 262144, MaxItems: 10000}
}

// Clamp pulls every field back into its documented bound rather than
// rejecting an out-of-range config outright, matching the tolerant
// posture of the rest of the control-plane wiring (spec.md §4.6).
func (c BufferingConfig) Clamp() BufferingConfig {
	clampInt := func(v, lo, hi int) int {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return BufferingConfig{
		TimeoutMs: clampInt(c.TimeoutMs, 25, 30000),
		MaxBytes:  clampInt(c.MaxBytes, 262144, 1048576),
		MaxItems:  clampInt(c.MaxItems, 1000, 10000),
	}
}

// Record is one decoded log or telemetry entry from a delivered batch.
type Record struct {
	Time   time.Time       `json:"time"`
	Type   string          `json:"type"`
	Record json.RawMessage `json:"record"`
}

// Sink receives every batch the host POSTs to the receiver server. User
// code implements this to forward records to its own destination (see
// redissink for a Redis-backed implementation).
type Sink interface {
	Accept(ctx context.Context, batch []Record) error
}

// Receiver is the minimal HTTP server spec.md §4.6 describes: it listens
// on sandbox.localdomain, accepts POSTed JSON batches, and hands them to
// Sink. Subscribe is what registers its address with the control API.
type Receiver struct {
	sink   Sink
	server *http.Server
	port   int
}

// NewReceiver configures an HTTP server for sandbox.localdomain:port (in a
// real Lambda sandbox that name resolves to loopback) and wires every POST
// body to sink. It does not listen; Serve binds the address.
func NewReceiver(sink Sink, port int) *Receiver {
	r := &Receiver{sink: sink, port: port}
	mux := http.NewServeMux()
	mux.HandleFunc("/", r.handle)
	r.server = &http.Server{
		Addr:    fmt.Sprintf("sandbox.localdomain:%d", port),
		Handler: mux,
	}
	return r
}

func (r *Receiver) handle(w http.ResponseWriter, req *http.Request) {
	var batch []Record
	if err := json.NewDecoder(req.Body).Decode(&batch); err != nil {
		rtlog.Op().Error("logsink: malformed batch", "error", err)
		http.Error(w, "malformed batch", http.StatusBadRequest)
		return
	}
	if err := r.sink.Accept(req.Context(), batch); err != nil {
		rtlog.Op().Error("logsink: sink rejected batch", "error", err)
		http.Error(w, "sink error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Serve blocks accepting connections until ctx is cancelled, then shuts
// the server down gracefully.
func (r *Receiver) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- r.server.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return r.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

type subscribeRequest struct {
	SchemaVersion string          `json:"schemaVersion"`
	Types         []string        `json:"types"`
	Buffering     BufferingConfig `json:"buffering"`
	Destination   subscribeDest   `json:"destination"`
}

type subscribeDest struct {
	Protocol string `json:"protocol"`
	URI      string `json:"URI"`
}

// Subscribe PUTs the subscription request to /logs or /telemetry,
// pointing the host at this Receiver's HTTP endpoint.
func Subscribe(ctx context.Context, client *rtapi.Client, extensionID string, schema Schema, types []string, buffering BufferingConfig, port int) error {
	path := "/telemetry"
	if schema == SchemaLogs {
		path = "/logs"
	}

	body, err := json.Marshal(subscribeRequest{
		SchemaVersion: string(schema),
		Types:         types,
		Buffering:     buffering.Clamp(),
		Destination: subscribeDest{
			Protocol: "HTTP",
			URI:      fmt.Sprintf("http://sandbox.localdomain:%d", port),
		},
	})
	if err != nil {
		return fmt.Errorf("marshal subscribe body: %w", err)
	}

	resp, err := client.Call(ctx, &rtapi.Request{
		Method: "PUT",
		Path:   path,
		Headers: map[string]string{
			"Content-Type":             "application/json",
			"Lambda-Extension-Identifier": extensionID,
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", path, err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("subscribe %s: control api returned status %d", path, resp.StatusCode)
	}
	return nil
}
