// Package apperr holds the sentinel errors shared across coursepress packages.
package apperr

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")

	// Input errors: the offending file is skipped, the run continues.
	ErrInvalidFrontMatter      = errors.New("invalid front matter")
	ErrUnterminatedFrontMatter = errors.New("unterminated front matter")
	ErrMissingField            = errors.New("missing required field")
	ErrInvalidPost             = errors.New("invalid post")

	// Run-level errors.
	ErrContentRoot      = errors.New("content root unavailable")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreTimeout     = errors.New("store timeout")
	ErrSyncInProgress   = errors.New("sync already in progress")

	// Read-path errors that make the resolver move to the next tier.
	ErrArtifactMissing = errors.New("artifact missing")
	ErrArtifactEmpty   = errors.New("artifact empty")

	ErrExport = errors.New("export failed")
)

// IsRetryable reports whether the caller may retry the operation that
// produced err unchanged.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreTimeout) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, ErrSyncInProgress)
}
