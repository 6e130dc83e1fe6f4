package lambda

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// outboundRequest is what the response serializer hands to the API client
// stage: everything needed to POST the invocation's outcome, already
// bit-exact against the paths in spec.md §6.
type outboundRequest struct {
	method      string
	path        string
	headers     map[string]string
	body        []byte
	bodyReader  *streamBody // set instead of body for the streaming variant
}

const (
	headerFunctionErrorType = "Lambda-Runtime-Function-Error-Type"
	headerResponseMode      = "Lambda-Runtime-Function-Response-Mode"
	responseModeStreaming   = "streaming"
)

// serializerStage converts the frame's handler outcome into an outbound
// request: a success body, an error diagnostic, or a streaming response
// (spec.md §4.4.4). It always produces something the API client stage can
// transmit — it never itself returns an error.
func serializerStage() Service {
	return ServiceFunc(func(ctx context.Context, f *frame) (*frame, error) {
		switch {
		case f.diagnostic != nil:
			f.outbound = errorRequest(f.Envelope.RequestID, f.diagnostic)
		case f.HandlerErr != nil:
			f.diagnostic = DiagnosticFromError(f.HandlerErr)
			f.outbound = errorRequest(f.Envelope.RequestID, f.diagnostic)
		case f.Stream != nil:
			req, err := streamingRequest(f.Envelope.RequestID, f.Stream)
			if err != nil {
				f.diagnostic = DiagnosticFromError(err)
				f.outbound = errorRequest(f.Envelope.RequestID, f.diagnostic)
				break
			}
			f.outbound = req
		default:
			req, err := successRequest(f.Envelope.RequestID, f.Result)
			if err != nil {
				f.diagnostic = DiagnosticFromError(fmt.Errorf("marshal response: %w", err))
				f.outbound = errorRequest(f.Envelope.RequestID, f.diagnostic)
				break
			}
			f.outbound = req
		}
		return f, nil
	})
}

func successRequest(requestID string, result any) (*outboundRequest, error) {
	body, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &outboundRequest{
		method:  "POST",
		path:    fmt.Sprintf("/runtime/invocation/%s/response", requestID),
		headers: map[string]string{"Content-Type": "application/json"},
		body:    body,
	}, nil
}

func errorRequest(requestID string, diag *Diagnostic) *outboundRequest {
	body, err := json.Marshal(diag)
	if err != nil {
		// Diagnostic is total and always JSON-safe; this should not
		// happen, but fall back to a minimal hand-built document rather
		// than dropping the POST entirely.
		body = []byte(fmt.Sprintf(`{"errorType":%q,"errorMessage":"failed to marshal diagnostic: %s"}`,
			diag.ErrorType, err.Error()))
	}
	return &outboundRequest{
		method: "POST",
		path:   fmt.Sprintf("/runtime/invocation/%s/error", requestID),
		headers: map[string]string{
			"Content-Type":           "application/json",
			headerFunctionErrorType: diag.ErrorType,
		},
		body: body,
	}
}

// streamBody carries the metadata prelude and frame reader for the
// streaming response variant (spec.md §4.4.4, §6).
type streamBody struct {
	prelude []byte
	frames  *StreamingResponse
}

func streamingRequest(requestID string, resp *StreamingResponse) (*outboundRequest, error) {
	prelude, err := json.Marshal(struct {
		StatusCode int               `json:"statusCode"`
		Headers    map[string]string `json:"headers"`
		Cookies    []string          `json:"cookies"`
	}{resp.StatusCode, resp.Headers, resp.Cookies})
	if err != nil {
		return nil, fmt.Errorf("marshal streaming prelude: %w", err)
	}
	// Wire format: prelude JSON, a single NUL terminator, then raw frames.
	prelude = append(prelude, 0)

	return &outboundRequest{
		method: "POST",
		path:   fmt.Sprintf("/runtime/invocation/%s/response", requestID),
		headers: map[string]string{
			headerResponseMode: responseModeStreaming,
			"Content-Type":     "application/octet-stream",
			"Trailer":          "Lambda-Runtime-Function-Error-Type",
		},
		bodyReader: &streamBody{prelude: prelude, frames: resp},
	}, nil
}

// fullBody renders the outbound request's body into a single byte slice,
// reading the streaming body to completion when present. An error while
// reading the user's stream is returned to the caller; no trailing error
// document is written.
func (r *outboundRequest) fullBody() ([]byte, error) {
	if r.bodyReader == nil {
		return r.body, nil
	}
	var buf bytes.Buffer
	buf.Write(r.bodyReader.prelude)
	if r.bodyReader.frames.Body != nil {
		if _, err := buf.ReadFrom(r.bodyReader.frames.Body); err != nil {
			return nil, fmt.Errorf("read streaming body: %w", err)
		}
	}
	return buf.Bytes(), nil
}
