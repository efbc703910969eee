package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/models"
)

var (
	bPosts       = []byte("posts")
	bIdxSection  = []byte("idx_section")
	bIdxCategory = []byte("idx_category")
)

// Bolt is the bbolt backed store. Posts are JSON values keyed by slug;
// section and category lookups go through nested index buckets.
type Bolt struct {
	db *bolt.DB
}

var _ Store = (*Bolt)(nil)

// OpenBolt opens (or creates) the bolt file at path.
func OpenBolt(path string) (*Bolt, error) {
	if path == "" {
		return nil, errors.New("store: missing bolt path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{
		Timeout: 1 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bPosts, bIdxSection, bIdxCategory} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Driver returns DriverBolt.
func (s *Bolt) Driver() string { return DriverBolt }

// Close closes the bolt file.
func (s *Bolt) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping runs an empty read transaction.
func (s *Bolt) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return wrapErr(ctx, "ping", err)
	}
	return wrapErr(ctx, "ping", s.db.View(func(*bolt.Tx) error { return nil }))
}

// UpsertBatch writes every post in one Update transaction.
func (s *Bolt) UpsertBatch(ctx context.Context, posts []models.Post, now time.Time) error {
	ts := now.UTC()
	err := s.db.Update(func(tx *bolt.Tx) error {
		postsB := tx.Bucket(bPosts)
		secB := tx.Bucket(bIdxSection)
		catB := tx.Bucket(bIdxCategory)

		for _, p := range posts {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := []byte(p.Slug)
			p.CreatedAt = ts
			if old := postsB.Get(key); old != nil {
				var prev models.Post
				if err := json.Unmarshal(old, &prev); err != nil {
					return fmt.Errorf("decode %s: %w", p.Slug, err)
				}
				if !prev.CreatedAt.IsZero() {
					p.CreatedAt = prev.CreatedAt
				}
				if err := unindex(secB, prev.Section, key); err != nil {
					return err
				}
				if err := unindex(catB, prev.Category, key); err != nil {
					return err
				}
			}
			p.ID = p.Slug
			p.UpdatedAt = ts

			v, err := json.Marshal(p)
			if err != nil {
				return err
			}
			if err := postsB.Put(key, v); err != nil {
				return err
			}
			if err := index(secB, p.Section, key); err != nil {
				return err
			}
			if err := index(catB, p.Category, key); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapErr(ctx, "upsert batch", err)
}

func index(b *bolt.Bucket, value string, slug []byte) error {
	if value == "" {
		return nil
	}
	sb, err := b.CreateBucketIfNotExists([]byte(value))
	if err != nil {
		return err
	}
	return sb.Put(slug, []byte{1})
}

func unindex(b *bolt.Bucket, value string, slug []byte) error {
	if value == "" {
		return nil
	}
	sb := b.Bucket([]byte(value))
	if sb == nil {
		return nil
	}
	return sb.Delete(slug)
}

// All returns every stored post ordered by slug.
func (s *Bolt) All(ctx context.Context) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr(ctx, "all", err)
	}
	out := []models.Post{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bPosts).ForEach(func(_, v []byte) error {
			var p models.Post
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	})
	if err != nil {
		return nil, wrapErr(ctx, "all", err)
	}
	return out, nil
}

// BySlug returns one post or apperr.ErrNotFound.
func (s *Bolt) BySlug(ctx context.Context, slug string) (*models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr(ctx, "by slug", err)
	}
	var p models.Post
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bPosts).Get([]byte(slug))
		if v == nil {
			return apperr.ErrNotFound
		}
		return json.Unmarshal(v, &p)
	})
	if err != nil {
		return nil, wrapErr(ctx, "by slug", err)
	}
	return &p, nil
}

// BySection returns the posts indexed under section.
func (s *Bolt) BySection(ctx context.Context, section string) ([]models.Post, error) {
	return s.byIndex(ctx, "by section", bIdxSection, section)
}

// ByCategory returns the posts indexed under category.
func (s *Bolt) ByCategory(ctx context.Context, category string) ([]models.Post, error) {
	return s.byIndex(ctx, "by category", bIdxCategory, category)
}

func (s *Bolt) byIndex(ctx context.Context, op string, idx []byte, value string) ([]models.Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	out := []models.Post{}
	err := s.db.View(func(tx *bolt.Tx) error {
		sb := tx.Bucket(idx).Bucket([]byte(value))
		if sb == nil {
			return nil
		}
		postsB := tx.Bucket(bPosts)
		return sb.ForEach(func(k, _ []byte) error {
			v := postsB.Get(k)
			if v == nil {
				return nil
			}
			var p models.Post
			if err := json.Unmarshal(v, &p); err != nil {
				return err
			}
			out = append(out, p)
			return nil
		})
	})
	if err != nil {
		return nil, wrapErr(ctx, op, err)
	}
	return out, nil
}

// Search scans every post for a case-insensitive substring match on
// title, content or tags.
func (s *Bolt) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := []SearchResult{}
	for _, p := range all {
		if len(out) >= limit {
			break
		}
		hay := strings.ToLower(p.Title + "\n" + p.Content + "\n" + strings.Join(p.Tags, " "))
		if !strings.Contains(hay, q) {
			continue
		}
		out = append(out, SearchResult{
			Slug:    p.Slug,
			Title:   p.Title,
			Section: p.Section,
			Snippet: snippet(p.Content, 200),
		})
	}
	return out, nil
}

// Count returns the number of stored posts.
func (s *Bolt) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, wrapErr(ctx, "count", err)
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bPosts).Stats().KeyN
		return nil
	})
	return n, wrapErr(ctx, "count", err)
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
