package tlcache

import (
	"errors"
	"testing"
)

func TestTranslationError(t *testing.T) {
	cause := errors.New("underlying error")
	err := &TranslationError{Message: "translation failed", Cause: cause}

	if err.Error() != "translation failed: underlying error" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}

	// Without cause
	err2 := &TranslationError{Message: "simple error"}
	if err2.Error() != "simple error" {
		t.Errorf("unexpected error message: %s", err2.Error())
	}
}

func TestProviderError(t *testing.T) {
	err := &ProviderError{Message: "rate limited", Retryable: true}

	if err.Error() != "provider error: rate limited" {
		t.Errorf("unexpected error message: %s", err.Error())
	}

	if !err.Retryable {
		t.Error("error should be retryable")
	}

	cause := errors.New("503 service unavailable")
	wrapped := &ProviderError{Message: "request failed", Cause: cause}
	if wrapped.Error() != "provider error: request failed: 503 service unavailable" {
		t.Errorf("unexpected error message: %s", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should reach the cause")
	}
}
