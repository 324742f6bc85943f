package sparql

import (
	"context"
	"testing"
	"time"
)

func TestNewEndpoint(t *testing.T) {
	e, err := NewEndpoint(DefaultEndpoint)
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	if e.URL() != DefaultEndpoint {
		t.Errorf("URL = %q, want %q", e.URL(), DefaultEndpoint)
	}
}

func TestNewEndpointWithOptions(t *testing.T) {
	_, err := NewEndpoint("https://example.org/sparql",
		WithTimeout(5*time.Second),
		WithDigestAuth("user", "pass"),
	)
	if err != nil {
		t.Fatalf("NewEndpoint with options: %v", err)
	}
}

func TestSelectHonorsCancelledContext(t *testing.T) {
	e, err := NewEndpoint("https://example.org/sparql")
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := e.Select(ctx, "SELECT 1"); err == nil {
		t.Error("Select with cancelled context = nil error")
	}
}
