package lambda

import (
	"net/http"
	"strconv"
	"testing"
	"time"
)

func TestNewInvocationRequiresRequestID(t *testing.T) {
	header := http.Header{}
	header.Set(headerDeadlineMs, "1000")

	_, err := NewInvocation(header, []byte(`{}`))
	if err == nil {
		t.Fatal("expected error for missing request id")
	}
}

func TestNewInvocationParsesDeadline(t *testing.T) {
	deadline := time.Now().Add(5 * time.Second)
	header := http.Header{}
	header.Set(headerRequestID, "req-1")
	header.Set(headerDeadlineMs, strconv.FormatInt(deadline.UnixMilli(), 10))
	header.Set(headerInvokedArn, "arn:aws:lambda:us-east-1:123:function:demo")

	inv, err := NewInvocation(header, []byte(`{"hello":"world"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.RequestID != "req-1" {
		t.Fatalf("request id = %q, want req-1", inv.RequestID)
	}
	if inv.InvokedResource != "arn:aws:lambda:us-east-1:123:function:demo" {
		t.Fatalf("unexpected invoked resource: %q", inv.InvokedResource)
	}
	if got := inv.Deadline().UnixMilli(); got != deadline.UnixMilli() {
		t.Fatalf("deadline = %d, want %d", got, deadline.UnixMilli())
	}
	if string(inv.Payload) != `{"hello":"world"}` {
		t.Fatalf("unexpected payload: %s", inv.Payload)
	}
}

func TestNewInvocationClientContextAndIdentity(t *testing.T) {
	header := http.Header{}
	header.Set(headerRequestID, "req-2")
	header.Set(headerClientCtx, `{"custom":{"k":"v"}}`)
	header.Set(headerIdentity, `{"cognitoIdentityId":"abc"}`)

	inv, err := NewInvocation(header, []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var cc struct {
		Custom map[string]string `json:"custom"`
	}
	if err := inv.ClientContext(&cc); err != nil {
		t.Fatalf("ClientContext: %v", err)
	}
	if cc.Custom["k"] != "v" {
		t.Fatalf("unexpected client context: %+v", cc)
	}

	var id struct {
		CognitoIdentityID string `json:"cognitoIdentityId"`
	}
	if err := inv.Identity(&id); err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if id.CognitoIdentityID != "abc" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestNewInvocationWithoutClientContextIsNoop(t *testing.T) {
	header := http.Header{}
	header.Set(headerRequestID, "req-3")

	inv, err := NewInvocation(header, []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var v map[string]any
	if err := inv.ClientContext(&v); err != nil {
		t.Fatalf("ClientContext on absent header should be a no-op: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil map, got %+v", v)
	}
}
