package webproxy

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestUpstreamError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := &UpstreamError{Message: "fetch failed", URL: "https://origin.example", Cause: cause}

	if !errors.Is(err, cause) {
		t.Error("Unwrap should expose the cause")
	}
	if !strings.Contains(err.Error(), "origin.example") {
		t.Errorf("Error string should mention the URL: %s", err.Error())
	}
}

func TestProviderError_Message(t *testing.T) {
	err := &ProviderError{Message: "API call failed"}
	if !strings.Contains(err.Error(), "provider error") {
		t.Errorf("Unexpected error string: %s", err.Error())
	}
}

func TestCountMismatchError(t *testing.T) {
	err := &CountMismatchError{Stage: "apply", Expected: 3, Got: 2}
	want := "apply count mismatch: expected 3, got 2"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}
}

func TestPatternError(t *testing.T) {
	err := &PatternError{Pattern: "zebra"}
	if !strings.Contains(err.Error(), "zebra") {
		t.Errorf("Unexpected error string: %s", err.Error())
	}
}
