package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
)

func TestRetryEngine_MaxRetries(t *testing.T) {
	engine := NewRetryEngine(5)
	fail := apperr.Generation("hard veto: missing_text", nil)

	// 3 attempts already made, no more retries
	attempts := []Attempt{{Err: fail}, {Err: fail}, {Err: fail}}
	if engine.ShouldRetry(context.Background(), attempts) {
		t.Error("should not retry after 3 attempts")
	}
	if !engine.ShouldRetry(context.Background(), attempts[:2]) {
		t.Error("should retry after 2 attempts when the cap allows it")
	}
}

func TestRetryEngine_SuccessNoRetry(t *testing.T) {
	engine := NewRetryEngine(1)
	if engine.ShouldRetry(context.Background(), []Attempt{{}}) {
		t.Error("should not retry a successful call")
	}
	if engine.ShouldRetry(context.Background(), nil) {
		t.Error("should not retry without attempts")
	}
}

func TestRetryEngine_GenerationFailureRetries(t *testing.T) {
	engine := NewRetryEngine(1)
	attempts := []Attempt{{Err: fmt.Errorf("generate: %w", apperr.Generation("generate rpc", errors.New("unavailable")))}}

	if !engine.ShouldRetry(context.Background(), attempts) {
		t.Error("should retry after a generation failure")
	}
	attempts = append(attempts, Attempt{Err: attempts[0].Err})
	if engine.ShouldRetry(context.Background(), attempts) {
		t.Error("one retry allowed, got a second")
	}
}

func TestRetryEngine_NoRetryOnTimeoutOrOtherKinds(t *testing.T) {
	engine := NewRetryEngine(2)
	tests := []struct {
		name string
		err  error
	}{
		{"deadline", apperr.Generation("generate rpc", context.DeadlineExceeded)},
		{"canceled", context.Canceled},
		{"validation", apperr.Validation("bad input")},
		{"plain", errors.New("boom")},
	}
	for _, tt := range tests {
		if engine.ShouldRetry(context.Background(), []Attempt{{Err: tt.err}}) {
			t.Errorf("%s: should not retry", tt.name)
		}
	}
}

func TestRetryEngine_CancelledContext(t *testing.T) {
	engine := NewRetryEngine(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if engine.ShouldRetry(ctx, []Attempt{{Err: apperr.Generation("generate rpc", nil)}}) {
		t.Error("should not retry once the caller gave up")
	}
}

func TestNewRetryEngine_Clamps(t *testing.T) {
	if NewRetryEngine(-3).retries != 0 {
		t.Error("negative retries should clamp to 0")
	}
	if NewRetryEngine(9).retries != maxRetries {
		t.Errorf("retries should clamp to %d", maxRetries)
	}
}
