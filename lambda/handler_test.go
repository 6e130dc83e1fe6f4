package lambda

import (
	"context"
	"errors"
	"testing"
)

func TestHandlerStageInvokesHandler(t *testing.T) {
	h := HandlerFunc[sampleEvent, string](func(ctx context.Context, event sampleEvent, inv *Invocation) (string, error) {
		return "hello " + event.Name, nil
	})
	stage := handlerStage[sampleEvent, string](h)

	f := newFrame(&Invocation{RequestID: "req-1"})
	f.Event = &sampleEvent{Name: "ada"}

	f, err := stage.Call(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Result != "hello ada" {
		t.Fatalf("unexpected result: %v", f.Result)
	}
}

func TestHandlerStagePropagatesHandlerError(t *testing.T) {
	wantErr := errors.New("handler failed")
	h := HandlerFunc[sampleEvent, string](func(ctx context.Context, event sampleEvent, inv *Invocation) (string, error) {
		return "", wantErr
	})
	stage := handlerStage[sampleEvent, string](h)

	f := newFrame(&Invocation{RequestID: "req-1"})
	f.Event = &sampleEvent{}

	f, err := stage.Call(context.Background(), f)
	if err != nil {
		t.Fatalf("stage itself should not return a Go error: %v", err)
	}
	if f.HandlerErr != wantErr {
		t.Fatalf("HandlerErr = %v, want %v", f.HandlerErr, wantErr)
	}
}

func TestHandlerStageSkipsInvokeAfterDeserializeFailure(t *testing.T) {
	called := false
	h := HandlerFunc[sampleEvent, string](func(ctx context.Context, event sampleEvent, inv *Invocation) (string, error) {
		called = true
		return "", nil
	})
	stage := handlerStage[sampleEvent, string](h)

	f := newFrame(&Invocation{RequestID: "req-1"})
	f.HandlerErr = &DeserializeError{Message: "bad json"}

	f, _ = stage.Call(context.Background(), f)
	if called {
		t.Fatal("handler must not be invoked after a deserialize failure")
	}
	if f.HandlerErr == nil {
		t.Fatal("expected HandlerErr to remain set")
	}
}

func TestHandlerStageEventTypeMismatch(t *testing.T) {
	h := HandlerFunc[sampleEvent, string](func(ctx context.Context, event sampleEvent, inv *Invocation) (string, error) {
		return "unreachable", nil
	})
	stage := handlerStage[sampleEvent, string](h)

	f := newFrame(&Invocation{RequestID: "req-1"})
	f.Event = "not the right type"

	f, _ = stage.Call(context.Background(), f)
	if f.HandlerErr == nil {
		t.Fatal("expected a DeserializeError for the type mismatch")
	}
}
