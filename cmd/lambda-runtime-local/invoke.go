package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	lambdaruntime "github.com/oriys/go-lambda-runtime/lambda"
)

// fixture is the local event file shape: a request id (generated if
// absent) plus a raw event payload. Both JSON and YAML files go through the
// YAML decoder (JSON is valid YAML), and the event is re-encoded as JSON.
type fixture struct {
	RequestID string          `yaml:"requestId" json:"requestId"`
	Event     json.RawMessage `yaml:"event" json:"event"`
}

func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}

	var doc struct {
		RequestID string `yaml:"requestId"`
		Event     any    `yaml:"event"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	fx := fixture{RequestID: doc.RequestID}
	if doc.Event != nil {
		if fx.Event, err = json.Marshal(doc.Event); err != nil {
			return nil, fmt.Errorf("encode fixture event: %w", err)
		}
	}
	if fx.RequestID == "" {
		fx.RequestID = uuid.NewString()
	}
	if len(fx.Event) == 0 {
		fx.Event = json.RawMessage("{}")
	}
	return &fx, nil
}

// fakeControlAPI serves exactly one GET /runtime/invocation/next with fx's
// event, then captures whatever the runtime POSTs back (response or
// error) so invokeCmd can print it. Every request after the first next is
// answered with a blocking handler so the loop's second poll never
// resolves, letting the harness shut down cleanly via context
// cancellation rather than a second served event.
type fakeControlAPI struct {
	server *httptest.Server

	mu       sync.Mutex
	served   bool
	outcome  string
	status   int
	body     []byte
	done     chan struct{}
}

func newFakeControlAPI(fx *fixture) *fakeControlAPI {
	f := &fakeControlAPI{done: make(chan struct{})}
	mux := http.NewServeMux()

	mux.HandleFunc("/runtime/invocation/next", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		already := f.served
		f.served = true
		f.mu.Unlock()

		if already {
			// Block forever (until the client gives up via ctx
			// cancellation): no second invocation in this harness.
			<-r.Context().Done()
			return
		}

		w.Header().Set("Lambda-Runtime-Aws-Request-Id", fx.RequestID)
		w.Header().Set("Lambda-Runtime-Deadline-Ms", strconv.FormatInt(time.Now().Add(30*time.Second).UnixMilli(), 10))
		w.WriteHeader(http.StatusOK)
		w.Write(fx.Event)
	})

	mux.HandleFunc("/runtime/invocation/", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.status = http.StatusAccepted
		f.body = body
		if errType := r.Header.Get("Lambda-Runtime-Function-Error-Type"); errType != "" {
			f.outcome = "error"
		} else {
			f.outcome = "response"
		}
		f.mu.Unlock()

		w.WriteHeader(http.StatusAccepted)
		close(f.done)
	})

	mux.HandleFunc("/runtime/init/error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	f.server = httptest.NewServer(mux)
	return f
}

func (f *fakeControlAPI) authority() string {
	return f.server.Listener.Addr().String()
}

func (f *fakeControlAPI) close() {
	f.server.Close()
}

// echoHandler is the default handler this harness exercises: it returns
// the decoded event verbatim, useful for checking the runtime's own
// wiring independent of any particular function's business logic.
type echoHandler struct{}

func (echoHandler) Invoke(ctx context.Context, event json.RawMessage, inv *lambdaruntime.Invocation) (json.RawMessage, error) {
	return event, nil
}

func invokeCmd() *cobra.Command {
	var fixturePath string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Invoke a handler once against a local event fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fixturePath == "" {
				return fmt.Errorf("--event is required")
			}
			fx, err := loadFixture(fixturePath)
			if err != nil {
				return err
			}

			api := newFakeControlAPI(fx)
			defer api.close()

			os.Setenv("AWS_LAMBDA_RUNTIME_API", api.authority())
			os.Setenv("AWS_LAMBDA_FUNCTION_NAME", "local")
			os.Setenv("_HANDLER", "local.echo")

			rt, err := lambdaruntime.New[json.RawMessage, json.RawMessage](echoHandler{})
			if err != nil {
				return fmt.Errorf("build runtime: %w", err)
			}

			go func() {
				_ = rt.Run()
			}()

			select {
			case <-api.done:
			case <-time.After(timeout):
				return fmt.Errorf("no response observed within %s", timeout)
			}
			rt.Coordinator().Shutdown()

			api.mu.Lock()
			defer api.mu.Unlock()
			fmt.Printf("request id: %s\n", fx.RequestID)
			fmt.Printf("outcome:    %s\n", api.outcome)
			fmt.Printf("body:       %s\n", api.body)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fixturePath, "event", "e", "", "path to a JSON or YAML event fixture")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "how long to wait for an outcome")
	return cmd
}
