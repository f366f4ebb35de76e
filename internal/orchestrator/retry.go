package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/danielpatrickdp/stress-dost/internal/apperr"
)

// #region constants

const maxRetries = 2 // max 2 retries = 3 total attempts

// #endregion

// #region attempt

// Attempt is one generator call.
type Attempt struct {
	Err     error
	Elapsed time.Duration
}

// #endregion

// #region engine

// RetryEngine decides whether a failed generator call is worth repeating.
type RetryEngine struct {
	retries int
}

// NewRetryEngine allows up to retries extra attempts, capped at maxRetries.
func NewRetryEngine(retries int) *RetryEngine {
	if retries < 0 {
		retries = 0
	}
	if retries > maxRetries {
		retries = maxRetries
	}
	return &RetryEngine{retries: retries}
}

// #endregion

// #region should-retry

// ShouldRetry reports whether another attempt should be made.
// attempts contains all attempts so far (including the one just made).
func (r *RetryEngine) ShouldRetry(ctx context.Context, attempts []Attempt) bool {
	if len(attempts) == 0 {
		return false
	}
	if len(attempts) > r.retries {
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	latest := attempts[len(attempts)-1]
	if latest.Err == nil {
		return false
	}
	// A timed-out call already used the whole budget.
	if errors.Is(latest.Err, context.DeadlineExceeded) || errors.Is(latest.Err, context.Canceled) {
		return false
	}
	return apperr.Is(latest.Err, apperr.KindGeneration)
}

// #endregion
