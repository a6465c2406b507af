package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStandardSentinels(t *testing.T) {
	if got := ClassifyError(sql.ErrNoRows); got != ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND for sql.ErrNoRows, got %s", got)
	}
	if got := ClassifyError(context.DeadlineExceeded); got != ErrCodeTimeout {
		t.Errorf("Expected TIMEOUT for deadline exceeded, got %s", got)
	}
	if got := ClassifyError(context.Canceled); got != ErrCodeTimeout {
		t.Errorf("Expected TIMEOUT for cancellation, got %s", got)
	}
	if got := ClassifyError(fmt.Errorf("query failed: %w", sql.ErrNoRows)); got != ErrCodeNotFound {
		t.Errorf("Expected NOT_FOUND through wrapping, got %s", got)
	}
}

func TestClassifyMessageFallback(t *testing.T) {
	tests := []struct {
		message string
		want    ErrorCode
	}{
		{"UNIQUE constraint failed: sessions.id", ErrCodeDuplicate},
		{"CHECK constraint failed: duration", ErrCodeConstraint},
		{"database is locked", ErrCodeBusy},
		{"database disk image is malformed", ErrCodeCorruption},
		{"no such table: sessions", ErrCodeConnection},
		{"no space left on device", ErrCodeDiskSpace},
		{"context timeout while executing", ErrCodeTimeout},
		{"deadlock detected", ErrCodeTransaction},
		{"something else entirely", ErrCodeUnknown},
	}

	for _, tt := range tests {
		if got := ClassifyError(errors.New(tt.message)); got != tt.want {
			t.Errorf("Message %q: expected %s, got %s", tt.message, tt.want, got)
		}
	}
}

func TestClassifyNil(t *testing.T) {
	if got := ClassifyError(nil); got != ErrCodeUnknown {
		t.Errorf("Expected UNKNOWN for nil, got %s", got)
	}
}

func TestWrapDatabaseError(t *testing.T) {
	if err := WrapDatabaseError("UpsertSession", nil); err != nil {
		t.Errorf("Expected nil pass-through, got %v", err)
	}

	err := WrapDatabaseError("UpsertSession", errors.New("database is locked"))
	if !IsBusy(err) {
		t.Errorf("Expected busy classification, got %v", err)
	}
	if !IsRetryable(err) {
		t.Error("Expected busy errors to be retryable")
	}

	withCtx := WrapDatabaseErrorWithContext("GetSessionByID", sql.ErrNoRows, map[string]string{"session_id": "s-1"})
	var repoErr *RepositoryError
	if !errors.As(withCtx, &repoErr) {
		t.Fatalf("Expected a repository error, got %v", withCtx)
	}
	if repoErr.Context["session_id"] != "s-1" {
		t.Errorf("Expected context to carry session_id, got %v", repoErr.Context)
	}
}
