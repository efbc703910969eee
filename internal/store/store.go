// Package store persists normalized posts. Two drivers are available:
// SQLite (default) and bbolt. Both commit a batch atomically and keep the
// creation time of posts that already exist.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/models"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// SearchResult represents one search hit.
type SearchResult struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Section string `json:"section"`
	Snippet string `json:"snippet"`
}

// Store is the persistent posts collection.
type Store interface {
	// UpsertBatch writes every post in one atomic transaction. Existing
	// slugs keep their createdAt; all written posts get updatedAt = now.
	UpsertBatch(ctx context.Context, posts []models.Post, now time.Time) error
	All(ctx context.Context) ([]models.Post, error)
	// BySlug returns apperr.ErrNotFound for unknown slugs.
	BySlug(ctx context.Context, slug string) (*models.Post, error)
	BySection(ctx context.Context, section string) ([]models.Post, error)
	ByCategory(ctx context.Context, category string) ([]models.Post, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Driver() string
	Close() error
}

// Options selects and configures a driver.
type Options struct {
	Driver string
	Path   string
}

// Open opens the store described by opts.
func Open(opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return OpenSQLite(opts.Path)
	case DriverBolt:
		return OpenBolt(opts.Path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", opts.Driver)
	}
}

// wrapErr maps a driver failure onto the store error taxonomy: deadline
// overruns become apperr.ErrStoreTimeout, anything else ErrStoreUnavailable.
func wrapErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("store: %s: %w: %v", op, apperr.ErrStoreTimeout, err)
	}
	return fmt.Errorf("store: %s: %w: %v", op, apperr.ErrStoreUnavailable, err)
}
