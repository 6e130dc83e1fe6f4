// Package rtapi implements the control API client (spec.md §4.1): one
// connection-pooled HTTP client that rewrites relative request paths
// against a configured base authority and exposes a single Call operation.
package rtapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// UserAgent identifies the runtime and its version on every outbound
// request, matching the original crate's user_agent.rs behavior.
const UserAgent = "go-lambda-runtime/1.0"

// ErrTransport tags connection, IO, and parse failures talking to the
// control API. It never wraps a non-2xx response: callers decide what a
// status code means for their endpoint.
var ErrTransport = errors.New("control api transport error")

// Client is the sole collaborator every component that talks to the
// control API uses: the invocation loop (C5) and the extension subsystem
// (C6) share one Client and its connection pool.
type Client struct {
	baseAuthority string
	http          *http.Client
}

// New builds a Client rewriting every request's scheme+authority to
// baseAuthority (host:port, as read from AWS_LAMBDA_RUNTIME_API), keeping
// path and query untouched. Connection pooling is internal: a single
// *http.Client backed by a Transport with keep-alives is reused for every
// call.
func New(baseAuthority string) *Client {
	return &Client{
		baseAuthority: baseAuthority,
		http: &http.Client{
			// No overall request timeout: GET /runtime/invocation/next is
			// an intentionally long poll and must be cancellable only by
			// context, never by a client-side deadline.
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Request is a relative-URI HTTP request bound for the control API.
type Request struct {
	Method  string
	Path    string // e.g. "/runtime/invocation/next"
	Headers map[string]string
	Body    []byte
}

// Response is the full response body read to completion.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Call issues req against the control API and returns once the full
// response body has been received. It never retries: for GET
// /runtime/invocation/next the invocation loop's own long-poll is the
// retry mechanism; for POSTs a transport failure is fatal to the current
// invocation only (spec.md §4.1).
func (c *Client) Call(ctx context.Context, req *Request) (*Response, error) {
	url := fmt.Sprintf("http://%s%s", c.baseAuthority, req.Path)

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	httpReq.Header.Set("User-Agent", UserAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// CallWithRetry behaves like Call but retries once on a connection-level
// failure (refused/reset), matching the original runtime-api-client's
// bounded retry around the TCP connection itself — never the long poll's
// semantics, and never for POSTs (SPEC_FULL.md §3).
func (c *Client) CallWithRetry(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.Call(ctx, req)
	if err == nil {
		return resp, nil
	}
	if !isConnectionError(err) {
		return nil, err
	}
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return c.Call(ctx, req)
}

func isConnectionError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
