package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindSurvivesWrapping(t *testing.T) {
	base := Validation("expected %d responses, got %d", 10, 9)
	wrapped := fmt.Errorf("analyze: %w", base)

	if !Is(wrapped, KindValidation) {
		t.Fatalf("expected validation kind, got %q", KindOf(wrapped))
	}
	if Is(wrapped, KindNotFound) {
		t.Fatal("validation error reported as not_found")
	}
	if wrapped.Error() != "analyze: expected 10 responses, got 9" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func TestErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Generation("generate popup", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "generate popup: connection refused" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("bad"), http.StatusBadRequest},
		{NotFound("session %s", "x"), http.StatusNotFound},
		{ContentFetch("fetch", nil), http.StatusBadGateway},
		{errors.New("plain"), http.StatusInternalServerError},
		{Logging("sink", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsNil(t *testing.T) {
	if Is(nil, KindValidation) {
		t.Fatal("nil error must not match any kind")
	}
}
