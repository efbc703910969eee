package apperr

import (
	"context"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(fmt.Errorf("commit: %w", ErrStoreTimeout)) {
		t.Error("wrapped store timeout should be retryable")
	}
	if !IsRetryable(context.DeadlineExceeded) {
		t.Error("deadline exceeded should be retryable")
	}
	if IsRetryable(fmt.Errorf("commit: %w", ErrStoreUnavailable)) {
		t.Error("store unavailable should not be retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
}
