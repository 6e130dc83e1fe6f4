// Package bootstrap reads the process-wide environment descriptor
// (spec.md §3) the host supplies once at process start, following the
// teacher's typed-config-struct-plus-env-population shape
// (internal/config.Config + LoadFromEnv in the teacher repo).
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
)

// Descriptor is immutable after FromEnv returns; nothing in the runtime
// mutates it post-init.
type Descriptor struct {
	FunctionName    string
	FunctionVersion string
	MemoryLimitMB   int
	LogStreamName   string
	LogGroupName    string
	Handler         string // _HANDLER / AWS_LAMBDA_FUNCTION_HANDLER passthrough
	RuntimeAPI      string // host:port of the control API
}

// FromEnv populates a Descriptor from the variables spec.md §6 lists. Only
// AWS_LAMBDA_RUNTIME_API is required; everything else defaults to "" / 0
// when absent so local/test harnesses don't need to fake the full set.
func FromEnv() (*Descriptor, error) {
	runtimeAPI := os.Getenv("AWS_LAMBDA_RUNTIME_API")
	if runtimeAPI == "" {
		return nil, fmt.Errorf("AWS_LAMBDA_RUNTIME_API is not set")
	}

	memoryLimit := 0
	if raw := os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse AWS_LAMBDA_FUNCTION_MEMORY_SIZE: %w", err)
		}
		memoryLimit = parsed
	}

	handler := os.Getenv("_HANDLER")
	if handler == "" {
		handler = os.Getenv("AWS_LAMBDA_FUNCTION_HANDLER")
	}

	return &Descriptor{
		FunctionName:    os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		FunctionVersion: os.Getenv("AWS_LAMBDA_FUNCTION_VERSION"),
		MemoryLimitMB:   memoryLimit,
		LogStreamName:   os.Getenv("AWS_LAMBDA_LOG_STREAM_NAME"),
		LogGroupName:    os.Getenv("AWS_LAMBDA_LOG_GROUP_NAME"),
		Handler:         handler,
		RuntimeAPI:      runtimeAPI,
	}, nil
}
