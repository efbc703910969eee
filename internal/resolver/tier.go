package resolver

import (
	"context"
	"fmt"

	"github.com/starford/coursepress/internal/models"
)

// Kind is the shape of a read.
type Kind int

// Query kinds.
const (
	KindAll Kind = iota
	KindBySlug
	KindBySection
	KindByCategory
	KindMetadata
)

func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindBySlug:
		return "by_slug"
	case KindBySection:
		return "by_section"
	case KindByCategory:
		return "by_category"
	case KindMetadata:
		return "metadata"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Query is one logical read. Value holds the slug, section or category.
type Query struct {
	Kind  Kind
	Value string
}

// Answer is a successful tier result. Exactly one of Posts, Post and
// Metadata is set, depending on the query kind.
type Answer struct {
	Posts    []models.Post
	Post     *models.Post
	Metadata *models.Metadata
	Source   string
}

// Tier is one data source of the fallback chain. Fetch returns
// apperr.ErrNotFound when the source loaded fine but has no such item;
// any other error moves resolution to the next tier.
type Tier interface {
	Name() string
	Fetch(ctx context.Context, q Query) (Answer, error)
}

// answerFrom applies q to a full, sorted collection.
func answerFrom(q Query, all []models.Post, metadata func() *models.Metadata) (Answer, error) {
	switch q.Kind {
	case KindAll:
		return Answer{Posts: all}, nil
	case KindBySlug:
		for i := range all {
			if all[i].Slug == q.Value {
				p := all[i]
				return Answer{Post: &p}, nil
			}
		}
		return Answer{}, errNotFound(q)
	case KindBySection:
		return Answer{Posts: filter(all, func(p models.Post) bool { return p.Section == q.Value })}, nil
	case KindByCategory:
		return Answer{Posts: filter(all, func(p models.Post) bool { return p.Category == q.Value })}, nil
	case KindMetadata:
		return Answer{Metadata: metadata()}, nil
	default:
		return Answer{}, fmt.Errorf("resolver: unsupported query %s", q.Kind)
	}
}

func filter(posts []models.Post, keep func(models.Post) bool) []models.Post {
	out := []models.Post{}
	for _, p := range posts {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
