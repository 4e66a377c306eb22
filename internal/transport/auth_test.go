package transport

import (
	"net/http"
	"testing"
)

// TestNoAuth tests that NoAuth applies no authentication.
func TestNoAuth(t *testing.T) {
	auth := &NoAuth{}
	req := &http.Request{
		Header: make(http.Header),
	}

	auth.Apply(req, "test-token")

	// Should not have any authentication headers
	if len(req.Header) != 0 {
		t.Errorf("Expected no headers, got %d", len(req.Header))
	}
}

// TestBearerAuth tests Bearer token authentication.
func TestBearerAuth(t *testing.T) {
	auth := &BearerAuth{}
	req := &http.Request{
		Header: make(http.Header),
	}

	auth.Apply(req, "test-token")

	authHeader := req.Header.Get("Authorization")
	expected := "Bearer test-token"
	if authHeader != expected {
		t.Errorf("Expected Authorization header '%s', got '%s'", expected, authHeader)
	}
}

// TestBearerAuthEmptyToken tests that an empty token adds no header.
func TestBearerAuthEmptyToken(t *testing.T) {
	auth := &BearerAuth{}
	req := &http.Request{
		Header: make(http.Header),
	}

	auth.Apply(req, "")

	if req.Header.Get("Authorization") != "" {
		t.Error("Should not have Authorization header")
	}
}
