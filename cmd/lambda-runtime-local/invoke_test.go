package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFixtureDefaultsRequestIDAndEvent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte("event:\n  name: ada\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fx, err := loadFixture(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx.RequestID == "" {
		t.Fatal("expected a generated request id")
	}
	if string(fx.Event) == "" {
		t.Fatal("expected a non-empty event")
	}
}

func TestLoadFixturePreservesExplicitRequestID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	if err := os.WriteFile(path, []byte(`{"requestId":"req-explicit","event":{"name":"grace"}}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fx, err := loadFixture(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fx.RequestID != "req-explicit" {
		t.Fatalf("request id = %q, want req-explicit", fx.RequestID)
	}
}

func TestLoadFixtureDefaultsEventWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.yaml")
	if err := os.WriteFile(path, []byte("requestId: req-1\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	fx, err := loadFixture(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(fx.Event) != "{}" {
		t.Fatalf("event = %q, want {}", fx.Event)
	}
}

func TestLoadFixtureMissingFile(t *testing.T) {
	if _, err := loadFixture("/nonexistent/path/fixture.yaml"); err == nil {
		t.Fatal("expected an error for a missing fixture file")
	}
}
