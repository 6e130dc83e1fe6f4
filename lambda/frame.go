package lambda

// frame is the mutable carrier that travels through the pipeline. It is
// distinct from Invocation: Invocation is the read-only envelope built
// once per request (spec.md §4.2); frame accumulates each stage's output
// as it threads the same request through deserialize → panic-guard →
// handler → serialize → transmit.
type frame struct {
	Envelope *Invocation

	// Event is the decoded payload handed to the user handler. Set by the
	// deserializer stage.
	Event any

	// Result is the user handler's success value. Set by the handler
	// stage, consumed by the serializer.
	Result any

	// Stream carries a streaming response body when the handler opted
	// into the streaming variant (spec.md §4.4.4). Mutually exclusive
	// with Result.
	Stream *StreamingResponse

	// HandlerErr is the error returned by the handler or the deserializer.
	// Consumed by the serializer via the diagnostic builder. A recovered
	// panic clears it and sets diagnostic instead.
	HandlerErr error

	// diagnostic is set once HandlerErr (or a panic) has been converted
	// to the wire document, and is what the serializer actually sends.
	diagnostic *Diagnostic

	// outbound is the HTTP request the serializer built for the API
	// client stage to transmit; it is the sole hand-off between the two.
	outbound *outboundRequest
}

func newFrame(envelope *Invocation) *frame {
	return &frame{Envelope: envelope}
}
