package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/export"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/slug"
)

// Cache keys.
const (
	keyAll      = "all"
	keyMetadata = "metadata"
	keySection  = "section:"
)

// StaticTier reads the exported JSON artifacts and caches what it reads.
type StaticTier struct {
	dir   string
	cache *Cache
}

// NewStaticTier reads artifacts under dir. cache may be shared with the
// owning Resolver so it can be cleared after a sync.
func NewStaticTier(dir string, cache *Cache) *StaticTier {
	if cache == nil {
		cache = NewCache(nil, 0)
	}
	return &StaticTier{dir: dir, cache: cache}
}

// Name implements Tier.
func (s *StaticTier) Name() string { return "static" }

// Fetch implements Tier.
func (s *StaticTier) Fetch(_ context.Context, q Query) (Answer, error) {
	switch q.Kind {
	case KindMetadata:
		md, err := s.metadata()
		if err != nil {
			return Answer{}, err
		}
		return Answer{Metadata: md}, nil
	case KindBySection:
		posts, err := s.section(q.Value)
		if err != nil {
			return Answer{}, err
		}
		return Answer{Posts: posts}, nil
	}

	all, err := s.all()
	if err != nil {
		return Answer{}, err
	}
	return answerFrom(q, all, nil)
}

func (s *StaticTier) all() ([]models.Post, error) {
	if v, ok := s.cache.Get(keyAll); ok {
		return v.([]models.Post), nil
	}
	var posts []models.Post
	if err := s.read(export.PostsFile, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	s.cache.Put(keyAll, posts)
	return posts, nil
}

// section reads the section artifact, falling back to filtering the whole
// collection when the section file does not exist. Names that are not
// canonical slugs never map to a file.
func (s *StaticTier) section(name string) ([]models.Post, error) {
	key := keySection + name
	if v, ok := s.cache.Get(key); ok {
		return v.([]models.Post), nil
	}
	var posts []models.Post
	err := apperr.ErrArtifactMissing
	if slug.Valid(name) {
		err = s.read(export.SectionFile(name), &posts)
	}
	switch {
	case errors.Is(err, apperr.ErrArtifactMissing):
		all, err := s.all()
		if err != nil {
			return nil, err
		}
		posts = filter(all, func(p models.Post) bool { return p.Section == name })
	case err != nil:
		return nil, err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	s.cache.Put(key, posts)
	return posts, nil
}

func (s *StaticTier) metadata() (*models.Metadata, error) {
	if v, ok := s.cache.Get(keyMetadata); ok {
		return v.(*models.Metadata), nil
	}
	var md models.Metadata
	if err := s.read(export.MetadataFile, &md); err != nil {
		return nil, err
	}
	if md.Sections == nil {
		md.Sections = map[string]models.SectionStats{}
	}
	if md.Categories == nil {
		md.Categories = map[string]models.CategoryStats{}
	}
	s.cache.Put(keyMetadata, &md)
	return &md, nil
}

// read decodes one artifact. A missing file maps to ErrArtifactMissing, a
// blank or null one to ErrArtifactEmpty.
func (s *StaticTier) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("resolver: %s: %w", name, apperr.ErrArtifactMissing)
	}
	if err != nil {
		return fmt.Errorf("resolver: read %s: %w", name, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("resolver: %s: %w", name, apperr.ErrArtifactEmpty)
	}
	if err := json.Unmarshal(trimmed, v); err != nil {
		return fmt.Errorf("resolver: decode %s: %w", name, err)
	}
	return nil
}
