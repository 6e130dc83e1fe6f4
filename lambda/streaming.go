package lambda

import "io"

// StreamingResponse marks a handler result as a stream of byte frames
// rather than a single JSON value (spec.md §4.4.4). A handler that wants
// to stream returns *StreamingResponse as its TResult.
type StreamingResponse struct {
	StatusCode int
	Headers    map[string]string
	Cookies    []string
	Body       io.Reader
}

// NewStreamingResponse builds a StreamingResponse with a 200 status and
// no extra headers; callers mutate the returned value before returning it
// from their handler.
func NewStreamingResponse(body io.Reader) *StreamingResponse {
	return &StreamingResponse{StatusCode: 200, Body: body}
}
