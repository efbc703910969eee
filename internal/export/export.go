// Package export materializes the static JSON artifacts read by the first
// resolver tier.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"sort"
	"time"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/slug"
	"github.com/starford/coursepress/internal/storage"
)

// Artifact names relative to the export directory.
const (
	PostsFile    = "posts.json"
	MetadataFile = "metadata.json"
	SitemapFile  = "sitemap.xml"
	SectionsDir  = "sections"
)

// SectionFile returns the artifact path of one section.
func SectionFile(section string) string {
	return path.Join(SectionsDir, section+".json")
}

// Mirror receives the artifacts after a successful local export.
type Mirror interface {
	Publish(ctx context.Context, dir string, files []string) error
}

// Manifest describes one export.
type Manifest struct {
	Dir         string    `json:"dir"`
	Files       []string  `json:"files"`
	Sections    []string  `json:"sections"`
	Removed     []string  `json:"removed,omitempty"`
	TotalPosts  int       `json:"totalPosts"`
	GeneratedAt time.Time `json:"generatedAt"`
	Mirrored    bool      `json:"mirrored"`
}

// Exporter writes the artifacts.
type Exporter struct {
	clock   clock.Clock
	baseURL string
	mirror  Mirror
	logger  *slog.Logger
}

// New creates an Exporter. mirror may be nil.
func New(c clock.Clock, baseURL string, mirror Mirror, logger *slog.Logger) *Exporter {
	if c == nil {
		c = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{clock: c, baseURL: baseURL, mirror: mirror, logger: logger}
}

// Export writes posts.json, one file per section, metadata.json and
// sitemap.xml under outputDir. Every file is replaced atomically; the
// first write failure stops the export.
func (e *Exporter) Export(ctx context.Context, posts []models.Post, outputDir string) (*Manifest, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("export: %w: %v", apperr.ErrExport, err)
	}
	fsys, err := storage.NewFS(outputDir)
	if err != nil {
		return nil, fmt.Errorf("export: %w: %v", apperr.ErrExport, err)
	}

	now := e.clock.Now().UTC()
	sorted := make([]models.Post, len(posts))
	copy(sorted, posts)
	models.SortPosts(sorted)

	m := &Manifest{Dir: fsys.Root(), TotalPosts: len(sorted), GeneratedAt: now}
	write := func(name string, data []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fsys.Write(name, data); err != nil {
			e.logger.Error("export: write failed", slog.String("file", name), slog.String("error", err.Error()))
			return fmt.Errorf("export: %w: %s: %v", apperr.ErrExport, name, err)
		}
		m.Files = append(m.Files, name)
		return nil
	}

	data, err := marshal(sorted)
	if err != nil {
		return nil, err
	}
	if err := write(PostsFile, data); err != nil {
		return nil, err
	}

	bySection := map[string][]models.Post{}
	for _, p := range sorted {
		if !slug.Valid(p.Section) {
			e.logger.Warn("export: section skipped", slog.String("slug", p.Slug), slog.String("section", p.Section))
			continue
		}
		bySection[p.Section] = append(bySection[p.Section], p)
	}
	for s := range bySection {
		m.Sections = append(m.Sections, s)
	}
	sort.Strings(m.Sections)
	for _, s := range m.Sections {
		data, err := marshal(bySection[s])
		if err != nil {
			return nil, err
		}
		if err := write(SectionFile(s), data); err != nil {
			return nil, err
		}
	}

	data, err = marshal(BuildMetadata(sorted, now))
	if err != nil {
		return nil, err
	}
	if err := write(MetadataFile, data); err != nil {
		return nil, err
	}

	data, err = buildSitemap(e.baseURL, sorted, now.Format(time.DateOnly))
	if err != nil {
		return nil, fmt.Errorf("export: %w: sitemap: %v", apperr.ErrExport, err)
	}
	if err := write(SitemapFile, data); err != nil {
		return nil, err
	}

	m.Removed = e.removeStale(fsys, bySection)

	e.logger.Info("export: done",
		slog.String("dir", m.Dir),
		slog.Int("posts", m.TotalPosts),
		slog.Int("sections", len(m.Sections)),
		slog.Int("removed", len(m.Removed)))

	if e.mirror != nil {
		if err := e.mirror.Publish(ctx, m.Dir, m.Files); err != nil {
			e.logger.Warn("export: mirror failed", slog.String("error", err.Error()))
		} else {
			m.Mirrored = true
		}
	}
	return m, nil
}

// removeStale deletes every file under SectionsDir that is not the
// artifact of a live section.
func (e *Exporter) removeStale(fsys *storage.FS, live map[string][]models.Post) []string {
	files, err := fsys.List(SectionsDir, ".json")
	if err != nil {
		return nil
	}
	keep := make(map[string]bool, len(live))
	for s := range live {
		keep[SectionFile(s)] = true
	}
	var removed []string
	for _, f := range files {
		if f.Err != nil || keep[f.Path] {
			continue
		}
		if err := fsys.Delete(f.Path); err != nil {
			e.logger.Warn("export: remove stale failed", slog.String("file", f.Path), slog.String("error", err.Error()))
			continue
		}
		removed = append(removed, f.Path)
	}
	return removed
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: %w: encode: %v", apperr.ErrExport, err)
	}
	return data, nil
}
