package lambda

import (
	"context"

	"github.com/oriys/go-lambda-runtime/internal/rtapi"
)

// buildPipeline composes the fixed stage order from spec.md §4.3:
// outermost first, API client, then response serializer, then panic
// guard, then deserializer, then any user-supplied layers, with the
// handler as the leaf.
func buildPipeline(client *rtapi.Client, decoder Decoder, newEvent newEventFactory, handler Service, userLayers ...Layer) Service {
	inner := chain(handler, userLayers...)
	withDeserializer := deserializerThen(decoder, newEvent, inner)
	withGuard := panicGuardStage(withDeserializer)
	withSerializer := serializerThen(withGuard)
	return apiClientThen(client, withSerializer)
}

// deserializerThen runs the deserializer stage, then (if decoding
// succeeded) hands off to next; a failed decode short-circuits next
// entirely so the handler never sees an invalid event.
func deserializerThen(decoder Decoder, newEvent newEventFactory, next Service) Service {
	deser := deserializerStage(decoder, newEvent)
	return ServiceFunc(func(ctx context.Context, f *frame) (*frame, error) {
		f, err := deser.Call(ctx, f)
		if err != nil {
			return f, err
		}
		if f.HandlerErr != nil {
			return f, nil
		}
		return next.Call(ctx, f)
	})
}

func serializerThen(next Service) Service {
	ser := serializerStage()
	return ServiceFunc(func(ctx context.Context, f *frame) (*frame, error) {
		f, err := next.Call(ctx, f)
		if err != nil {
			return f, err
		}
		return ser.Call(ctx, f)
	})
}

func apiClientThen(client *rtapi.Client, next Service) Service {
	api := apiClientStage(client)
	return ServiceFunc(func(ctx context.Context, f *frame) (*frame, error) {
		f, err := next.Call(ctx, f)
		if err != nil {
			return f, err
		}
		return api.Call(ctx, f)
	})
}
