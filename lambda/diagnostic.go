package lambda

import (
	"encoding/json"
	"fmt"
)

// ErrorTypePanic is the fixed error_type tag for panics caught by the
// panic guard (spec.md §3, §4.4.2).
const ErrorTypePanic = "Panic"

// Diagnostic is the wire-format error document posted to
// …/invocation/{id}/error or /runtime/init/error. Construction is total:
// DiagnosticFromError never itself fails (spec.md §4.8).
type Diagnostic struct {
	ErrorType    string   `json:"errorType"`
	ErrorMessage string   `json:"errorMessage"`
	StackTrace   []string `json:"stackTrace,omitempty"`
}

// ErrorTyper lets a user error customize its error_type tag, rather than
// falling back to the error's Go type name.
type ErrorTyper interface {
	LambdaErrorType() string
}

// StackTracer lets a user error attach frame strings to the diagnostic.
type StackTracer interface {
	StackTrace() []string
}

// DiagnosticFromError converts a handler error into a wire diagnostic.
// error_type comes from ErrorTyper when the error implements it, else the
// concrete Go type name, else "UnknownError".
func DiagnosticFromError(err error) *Diagnostic {
	if err == nil {
		return &Diagnostic{ErrorType: "UnknownError", ErrorMessage: "nil error"}
	}

	var errType string
	if typer, ok := err.(ErrorTyper); ok && typer.LambdaErrorType() != "" {
		errType = typer.LambdaErrorType()
	} else {
		errType = fmt.Sprintf("%T", err)
	}

	d := &Diagnostic{
		ErrorType:    errType,
		ErrorMessage: err.Error(),
	}
	if st, ok := err.(StackTracer); ok {
		d.StackTrace = st.StackTrace()
	}
	return d
}

// DiagnosticFromPanic converts a recovered panic value into a wire
// diagnostic with the fixed "Panic" error_type tag (spec.md §4.4.2).
// String panics, panics carrying an error, and fmt.Stringer values are
// stringified directly; anything else falls back to a generic message so
// the guard never needs to reflect into arbitrary panic payloads.
func DiagnosticFromPanic(recovered any) *Diagnostic {
	var message string
	switch v := recovered.(type) {
	case string:
		message = v
	case error:
		message = v.Error()
	case fmt.Stringer:
		message = v.String()
	default:
		message = "Lambda panicked"
	}
	return &Diagnostic{
		ErrorType:    ErrorTypePanic,
		ErrorMessage: message,
	}
}

// DeserializeError wraps a payload decode failure with the field path the
// decoder identified, when available (spec.md §3, §4.4.1).
type DeserializeError struct {
	Path    string
	Message string
}

func (e *DeserializeError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *DeserializeError) LambdaErrorType() string {
	return "DeserializeError"
}

// marshalDiagnostic renders a Diagnostic to its wire JSON form.
func marshalDiagnostic(d *Diagnostic) ([]byte, error) {
	return json.Marshal(d)
}
