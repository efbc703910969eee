package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/export"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/store"
)

// StoreTier reads from the persistent store. An empty store counts as an
// empty artifact so that raw files can still answer before the first sync.
type StoreTier struct {
	store store.Store
	clock clock.Clock
}

// NewStoreTier wraps st.
func NewStoreTier(st store.Store, c clock.Clock) *StoreTier {
	if c == nil {
		c = clock.System{}
	}
	return &StoreTier{store: st, clock: c}
}

// Name implements Tier.
func (s *StoreTier) Name() string { return "store" }

// Fetch implements Tier.
func (s *StoreTier) Fetch(ctx context.Context, q Query) (Answer, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return Answer{}, err
	}
	if n == 0 {
		return Answer{}, fmt.Errorf("resolver: store: %w", apperr.ErrArtifactEmpty)
	}

	switch q.Kind {
	case KindBySlug:
		p, err := s.store.BySlug(ctx, q.Value)
		if errors.Is(err, apperr.ErrNotFound) {
			return Answer{}, errNotFound(q)
		}
		if err != nil {
			return Answer{}, err
		}
		return Answer{Post: p}, nil
	case KindBySection:
		return sorted(s.store.BySection(ctx, q.Value))
	case KindByCategory:
		return sorted(s.store.ByCategory(ctx, q.Value))
	}

	posts, err := s.store.All(ctx)
	if err != nil {
		return Answer{}, err
	}
	models.SortPosts(posts)
	return answerFrom(q, posts, func() *models.Metadata {
		return export.BuildMetadata(posts, s.clock.Now().UTC())
	})
}

func sorted(posts []models.Post, err error) (Answer, error) {
	if err != nil {
		return Answer{}, err
	}
	models.SortPosts(posts)
	return Answer{Posts: posts}, nil
}
