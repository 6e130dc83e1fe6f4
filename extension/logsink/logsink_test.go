package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/oriys/go-lambda-runtime/internal/rtapi"
)

func TestBufferingConfigClampEnforcesBounds(t *testing.T) {
	cases := []struct {
		name string
		in   BufferingConfig
		want BufferingConfig
	}{
		{
			name: "below minimums",
			in:   BufferingConfig{TimeoutMs: 1, MaxBytes: 1, MaxItems: 1},
			want: BufferingConfig{TimeoutMs: 25, MaxBytes: 262144, MaxItems: 1000},
		},
		{
			name: "above maximums",
			in:   BufferingConfig{TimeoutMs: 999999, MaxBytes: 999999999, MaxItems: 999999},
			want: BufferingConfig{TimeoutMs: 30000, MaxBytes: 1048576, MaxItems: 10000},
		},
		{
			name: "defaults pass through unchanged",
			in:   DefaultBuffering(),
			want: DefaultBuffering(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Clamp()
			if got != tc.want {
				t.Fatalf("Clamp() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

type recordingSink struct {
	batches [][]Record
	err     error
}

func (s *recordingSink) Accept(ctx context.Context, batch []Record) error {
	s.batches = append(s.batches, batch)
	return s.err
}

func TestReceiverHandleDecodesBatchAndCallsSink(t *testing.T) {
	sink := &recordingSink{}
	r := NewReceiver(sink, 0)

	body := `[{"time":"2026-07-31T00:00:00Z","type":"function","record":{"msg":"hi"}}]`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	w := httptest.NewRecorder()

	r.handle(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if len(sink.batches) != 1 || len(sink.batches[0]) != 1 {
		t.Fatalf("expected exactly one batch of one record, got %v", sink.batches)
	}
	if sink.batches[0][0].Type != "function" {
		t.Fatalf("unexpected record type: %q", sink.batches[0][0].Type)
	}
}

func TestReceiverHandleRejectsMalformedBatch(t *testing.T) {
	sink := &recordingSink{}
	r := NewReceiver(sink, 0)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("not json"))
	w := httptest.NewRecorder()

	r.handle(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(sink.batches) != 0 {
		t.Fatal("sink must not be called for a malformed batch")
	}
}

func TestReceiverHandleReturns500OnSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("downstream unavailable")}
	r := NewReceiver(sink, 0)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`[]`))
	w := httptest.NewRecorder()

	r.handle(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestSubscribePutsClampedBufferingToLogsPath(t *testing.T) {
	var gotPath, gotIdentifier string
	var gotBody subscribeRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotIdentifier = r.Header.Get("Lambda-Extension-Identifier")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := rtapi.New(server.Listener.Addr().String())
	err := Subscribe(context.Background(), client, "ext-id-1", SchemaLogs, []string{"function"}, BufferingConfig{TimeoutMs: 1}, 9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/logs" {
		t.Fatalf("path = %q, want /logs", gotPath)
	}
	if gotIdentifier != "ext-id-1" {
		t.Fatalf("identifier header = %q", gotIdentifier)
	}
	if gotBody.Buffering.TimeoutMs != 25 {
		t.Fatalf("expected buffering to be clamped before sending, got %+v", gotBody.Buffering)
	}
	if gotBody.Destination.URI != "http://sandbox.localdomain:9999" {
		t.Fatalf("unexpected destination uri: %q", gotBody.Destination.URI)
	}
}

func TestSubscribePutsToTelemetryPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := rtapi.New(server.Listener.Addr().String())
	err := Subscribe(context.Background(), client, "ext-id-1", SchemaTelemetry, []string{"platform"}, DefaultBuffering(), 9999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/telemetry" {
		t.Fatalf("path = %q, want /telemetry", gotPath)
	}
}

func TestSubscribeErrorsOnNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := rtapi.New(server.Listener.Addr().String())
	err := Subscribe(context.Background(), client, "ext-id-1", SchemaLogs, []string{"function"}, DefaultBuffering(), 9999)
	if err == nil {
		t.Fatal("expected an error on a non-2xx response")
	}
}
