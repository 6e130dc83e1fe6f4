package bootstrap

import "testing"

func clearLambdaEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"AWS_LAMBDA_RUNTIME_API",
		"AWS_LAMBDA_FUNCTION_NAME",
		"AWS_LAMBDA_FUNCTION_VERSION",
		"AWS_LAMBDA_FUNCTION_MEMORY_SIZE",
		"AWS_LAMBDA_LOG_STREAM_NAME",
		"AWS_LAMBDA_LOG_GROUP_NAME",
		"_HANDLER",
		"AWS_LAMBDA_FUNCTION_HANDLER",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvRequiresRuntimeAPI(t *testing.T) {
	clearLambdaEnv(t)
	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected an error when AWS_LAMBDA_RUNTIME_API is unset")
	}
}

func TestFromEnvPopulatesDescriptor(t *testing.T) {
	clearLambdaEnv(t)
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "my-func")
	t.Setenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE", "256")
	t.Setenv("_HANDLER", "main.handler")

	desc, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.RuntimeAPI != "127.0.0.1:9001" {
		t.Fatalf("unexpected runtime api: %q", desc.RuntimeAPI)
	}
	if desc.FunctionName != "my-func" {
		t.Fatalf("unexpected function name: %q", desc.FunctionName)
	}
	if desc.MemoryLimitMB != 256 {
		t.Fatalf("unexpected memory limit: %d", desc.MemoryLimitMB)
	}
	if desc.Handler != "main.handler" {
		t.Fatalf("unexpected handler: %q", desc.Handler)
	}
}

func TestFromEnvHandlerFallsBackToFunctionHandler(t *testing.T) {
	clearLambdaEnv(t)
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")
	t.Setenv("AWS_LAMBDA_FUNCTION_HANDLER", "fallback.handler")

	desc, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc.Handler != "fallback.handler" {
		t.Fatalf("unexpected handler: %q", desc.Handler)
	}
}

func TestFromEnvRejectsUnparsableMemorySize(t *testing.T) {
	clearLambdaEnv(t)
	t.Setenv("AWS_LAMBDA_RUNTIME_API", "127.0.0.1:9001")
	t.Setenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE", "not-a-number")

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected an error for an unparsable memory size")
	}
}
