package resolver

import (
	"context"

	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/export"
	"github.com/starford/coursepress/internal/ingest"
	"github.com/starford/coursepress/internal/models"
)

// RawTier parses the Markdown sources on every read.
type RawTier struct {
	runner *ingest.Runner
	root   string
	clock  clock.Clock
}

// NewRawTier reads the content tree at root through runner.
func NewRawTier(runner *ingest.Runner, root string, c clock.Clock) *RawTier {
	if c == nil {
		c = clock.System{}
	}
	return &RawTier{runner: runner, root: root, clock: c}
}

// Name implements Tier.
func (r *RawTier) Name() string { return "raw" }

// Fetch implements Tier.
func (r *RawTier) Fetch(ctx context.Context, q Query) (Answer, error) {
	res, err := r.runner.Load(ctx, r.root)
	if err != nil {
		return Answer{}, err
	}
	posts := res.Posts
	models.SortPosts(posts)
	return answerFrom(q, posts, func() *models.Metadata {
		return export.BuildMetadata(posts, r.clock.Now().UTC())
	})
}
