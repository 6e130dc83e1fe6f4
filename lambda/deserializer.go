package lambda

import (
	"bytes"
	"context"
	"encoding/json"
)

// Decoder turns raw payload bytes into a typed event. JSON is the default
// (Decode below); alternative decoders are a compile-time capability, not
// a runtime-dispatched one (spec.md §9), so embedders construct a
// different stage rather than registering one at runtime.
type Decoder interface {
	Decode(payload []byte, into any) error
}

// JSONDecoder is the default Decoder, backed by encoding/json.
type JSONDecoder struct{}

func (JSONDecoder) Decode(payload []byte, into any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(into); err != nil {
		return translateJSONError(err)
	}
	return nil
}

// translateJSONError extracts the field path a json.UnmarshalTypeError
// identifies so DeserializeError.Path can point at it (spec.md §4.4.1).
func translateJSONError(err error) error {
	if typeErr, ok := err.(*json.UnmarshalTypeError); ok {
		path := typeErr.Field
		if typeErr.Struct != "" && path != "" {
			path = typeErr.Struct + "." + path
		}
		return &DeserializeError{Path: path, Message: err.Error()}
	}
	return &DeserializeError{Message: err.Error()}
}

// newEventFactory is supplied by Start; it allocates a fresh zero value of
// the user handler's event type so the deserializer can decode into it
// without reflection leaking out of this package.
type newEventFactory func() any

// deserializerStage produces the typed event consumed by the user handler.
// On decode failure it records a DeserializeError as the frame's handler
// error rather than calling Call's caller with a Go error, so the panic
// guard and serializer see a uniform error path (spec.md dataflow in §2).
func deserializerStage(decoder Decoder, newEvent newEventFactory) Service {
	return ServiceFunc(func(ctx context.Context, f *frame) (*frame, error) {
		event := newEvent()
		if err := decoder.Decode(f.Envelope.Payload, event); err != nil {
			f.HandlerErr = err
			return f, nil
		}
		f.Event = event
		return f, nil
	})
}
