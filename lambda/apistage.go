package lambda

import (
	"context"
	"fmt"

	"github.com/oriys/go-lambda-runtime/internal/rtapi"
	"github.com/oriys/go-lambda-runtime/internal/rtlog"
	"github.com/oriys/go-lambda-runtime/internal/rtmetrics"
)

// apiClientStage posts the outbound request built by the serializer. A
// non-2xx or transport failure here is logged and swallowed: it is a
// runtime-level error costing only this invocation, never surfaced back
// to the handler (spec.md §4.4.5, §7 "TransportError").
func apiClientStage(client *rtapi.Client) Service {
	return ServiceFunc(func(ctx context.Context, f *frame) (*frame, error) {
		req := f.outbound
		body, err := req.fullBody()
		if err != nil {
			rtlog.Op().Error("build response body failed", "request_id", f.Envelope.RequestID, "error", err)
			rtmetrics.RecordTransportError(req.path)
			return f, nil
		}

		resp, err := client.Call(ctx, &rtapi.Request{
			Method:  req.method,
			Path:    req.path,
			Headers: req.headers,
			Body:    body,
		})
		if err != nil {
			rtlog.Op().Error("post invocation outcome failed", "request_id", f.Envelope.RequestID, "path", req.path, "error", err)
			rtmetrics.RecordTransportError(req.path)
			return f, nil
		}
		if resp.StatusCode >= 300 {
			rtlog.Op().Error("control api rejected invocation outcome",
				"request_id", f.Envelope.RequestID, "path", req.path, "status", resp.StatusCode)
			rtmetrics.RecordTransportError(req.path)
		}
		return f, nil
	})
}

// postInitError reports a fatal bootstrap failure to /runtime/init/error.
// Called only before the first successful GET next (spec.md §9, §4.5).
func postInitError(ctx context.Context, client *rtapi.Client, diag *Diagnostic) error {
	body, err := marshalDiagnostic(diag)
	if err != nil {
		return fmt.Errorf("marshal init error: %w", err)
	}
	_, err = client.Call(ctx, &rtapi.Request{
		Method: "POST",
		Path:   "/runtime/init/error",
		Headers: map[string]string{
			"Content-Type":          "application/json",
			headerFunctionErrorType: diag.ErrorType,
		},
		Body: body,
	})
	return err
}
