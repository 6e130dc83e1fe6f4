package lambda

import "context"

// Handler is the user-supplied leaf of the pipeline (spec.md §4.4.3). It
// receives the decoded event and the invocation's envelope and returns
// either a serializable success value or an error. The core imposes no
// timeout of its own; the handler observes deadlines through Invocation.
type Handler[TEvent, TResult any] interface {
	Invoke(ctx context.Context, event TEvent, inv *Invocation) (TResult, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc[TEvent, TResult any] func(ctx context.Context, event TEvent, inv *Invocation) (TResult, error)

func (f HandlerFunc[TEvent, TResult]) Invoke(ctx context.Context, event TEvent, inv *Invocation) (TResult, error) {
	return f(ctx, event, inv)
}

// handlerStage adapts a generic Handler into the concrete Service every
// other stage speaks, erasing TEvent/TResult behind the frame's `any`
// fields. This is the one place in the pipeline where the generic user
// API meets the non-generic internal plumbing.
func handlerStage[TEvent, TResult any](h Handler[TEvent, TResult]) Service {
	return ServiceFunc(func(ctx context.Context, f *frame) (*frame, error) {
		if f.HandlerErr != nil {
			// Deserialization already failed; nothing to invoke.
			return f, nil
		}
		eventPtr, ok := f.Event.(*TEvent)
		if !ok {
			f.HandlerErr = &DeserializeError{Message: "decoded event type mismatch"}
			return f, nil
		}
		result, err := h.Invoke(ctx, *eventPtr, f.Envelope)
		if err != nil {
			f.HandlerErr = err
			return f, nil
		}
		if stream, ok := any(result).(*StreamingResponse); ok && stream != nil {
			f.Stream = stream
			return f, nil
		}
		f.Result = result
		return f, nil
	})
}
