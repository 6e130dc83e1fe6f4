package lambda

import (
	"os"
	"sync/atomic"
)

// traceEnvVar is the ambient environment variable downstream AWS SDKs and
// user code read to pick up the active X-Ray trace id (spec.md §6).
const traceEnvVar = "_X_AMZN_TRACE_ID"

// ambientTraceID is the process-wide mutable slot of spec.md §9: written
// only by the loop between invocations, read by CurrentTraceID from
// anywhere, including concurrently from inside the user handler (P6).
var ambientTraceID atomic.Pointer[string]

// CurrentTraceID returns the trace id of the invocation currently being
// dispatched, or "" outside of DISPATCHING or when the host sent no trace
// header.
func CurrentTraceID() string {
	if p := ambientTraceID.Load(); p != nil {
		return *p
	}
	return ""
}

func setAmbientTraceID(traceParent string) {
	ambientTraceID.Store(&traceParent)
	if traceParent != "" {
		os.Setenv(traceEnvVar, traceParent)
	} else {
		os.Unsetenv(traceEnvVar)
	}
}

func clearAmbientTraceID() {
	empty := ""
	ambientTraceID.Store(&empty)
	os.Unsetenv(traceEnvVar)
}
