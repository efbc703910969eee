// Package resolver answers post reads through an ordered chain of tiers:
// static export, persistent store, raw files. The first tier that answers
// wins; failures are logged and the next tier is tried.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/models"
)

// SourceNone is reported when every tier failed.
const SourceNone = "none"

func errNotFound(q Query) error {
	return fmt.Errorf("resolver: %s %q: %w", q.Kind, q.Value, apperr.ErrNotFound)
}

// Resolver iterates its tiers in order for every read.
type Resolver struct {
	tiers  []Tier
	cache  *Cache
	clock  clock.Clock
	logger *slog.Logger
}

// New creates a Resolver over tiers. cache is the cache the static tier
// writes to; it may be nil when no tier caches.
func New(cache *Cache, c clock.Clock, logger *slog.Logger, tiers ...Tier) *Resolver {
	if c == nil {
		c = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{tiers: tiers, cache: cache, clock: c, logger: logger}
}

// Cache returns the resolver's cache (nil when none).
func (r *Resolver) Cache() *Cache { return r.cache }

// ClearCache drops every cached static read.
func (r *Resolver) ClearCache() {
	if r.cache != nil {
		r.cache.Clear()
	}
}

// Resolve runs q through the chain. It returns apperr.ErrNotFound when a
// tier loaded fine but has no such item, and a non-nil error when every
// tier failed.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Answer, error) {
	var errs []error
	for _, t := range r.tiers {
		ans, err := t.Fetch(ctx, q)
		if err == nil {
			ans.Source = t.Name()
			return ans, nil
		}
		if errors.Is(err, apperr.ErrNotFound) {
			return Answer{Source: t.Name()}, err
		}
		r.logger.Warn("resolver: tier failed, falling back",
			slog.String("tier", t.Name()),
			slog.String("query", q.Kind.String()),
			slog.String("value", q.Value),
			slog.String("error", err.Error()))
		errs = append(errs, fmt.Errorf("%s: %w", t.Name(), err))
	}
	return Answer{Source: SourceNone}, fmt.Errorf("resolver: all tiers failed: %w", errors.Join(errs...))
}

// All returns every post; empty when every tier failed.
func (r *Resolver) All(ctx context.Context) ([]models.Post, string) {
	return r.collection(ctx, Query{Kind: KindAll})
}

// BySection returns the posts of one section.
func (r *Resolver) BySection(ctx context.Context, section string) ([]models.Post, string) {
	return r.collection(ctx, Query{Kind: KindBySection, Value: section})
}

// ByCategory returns the posts of one category.
func (r *Resolver) ByCategory(ctx context.Context, category string) ([]models.Post, string) {
	return r.collection(ctx, Query{Kind: KindByCategory, Value: category})
}

// BySlug returns one post, or nil when it does not exist or every tier failed.
func (r *Resolver) BySlug(ctx context.Context, slug string) (*models.Post, string) {
	ans, err := r.Resolve(ctx, Query{Kind: KindBySlug, Value: slug})
	if err != nil {
		return nil, ans.Source
	}
	return ans.Post, ans.Source
}

// Metadata returns the corpus metadata; zero counts when every tier failed.
func (r *Resolver) Metadata(ctx context.Context) (*models.Metadata, string) {
	ans, err := r.Resolve(ctx, Query{Kind: KindMetadata})
	if err != nil || ans.Metadata == nil {
		return models.EmptyMetadata(r.clock.Now().UTC()), ans.Source
	}
	return ans.Metadata, ans.Source
}

func (r *Resolver) collection(ctx context.Context, q Query) ([]models.Post, string) {
	ans, err := r.Resolve(ctx, q)
	if err != nil || ans.Posts == nil {
		return []models.Post{}, ans.Source
	}
	return ans.Posts, ans.Source
}
