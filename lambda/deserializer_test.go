package lambda

import (
	"context"
	"testing"
)

type sampleEvent struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func TestJSONDecoderDecode(t *testing.T) {
	var event sampleEvent
	if err := (JSONDecoder{}).Decode([]byte(`{"name":"ada","age":36}`), &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Name != "ada" || event.Age != 36 {
		t.Fatalf("unexpected decode result: %+v", event)
	}
}

func TestJSONDecoderDecodeTypeMismatch(t *testing.T) {
	var event sampleEvent
	err := (JSONDecoder{}).Decode([]byte(`{"name":"ada","age":"not a number"}`), &event)
	if err == nil {
		t.Fatal("expected decode error")
	}
	var deserErr *DeserializeError
	if d, ok := err.(*DeserializeError); ok {
		deserErr = d
	} else {
		t.Fatalf("expected *DeserializeError, got %T", err)
	}
	if deserErr.Path == "" {
		t.Fatal("expected a non-empty field path")
	}
}

func TestDeserializerStageSetsHandlerErrOnFailure(t *testing.T) {
	stage := deserializerStage(JSONDecoder{}, func() any { return &sampleEvent{} })
	f := newFrame(&Invocation{RequestID: "req-1", Payload: []byte(`not json`)})

	f, err := stage.Call(context.Background(), f)
	if err != nil {
		t.Fatalf("stage should not return a Go error: %v", err)
	}
	if f.HandlerErr == nil {
		t.Fatal("expected HandlerErr to be set")
	}
	if f.Event != nil {
		t.Fatal("event should not be set on decode failure")
	}
}

func TestDeserializerStageSetsEventOnSuccess(t *testing.T) {
	stage := deserializerStage(JSONDecoder{}, func() any { return &sampleEvent{} })
	f := newFrame(&Invocation{RequestID: "req-1", Payload: []byte(`{"name":"grace","age":45}`)})

	f, err := stage.Call(context.Background(), f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.HandlerErr != nil {
		t.Fatalf("unexpected handler error: %v", f.HandlerErr)
	}
	event, ok := f.Event.(*sampleEvent)
	if !ok {
		t.Fatalf("unexpected event type: %T", f.Event)
	}
	if event.Name != "grace" || event.Age != 45 {
		t.Fatalf("unexpected event: %+v", event)
	}
}
