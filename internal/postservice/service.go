// Package postservice coordinates ingestion, export and reads.
package postservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/export"
	"github.com/starford/coursepress/internal/ingest"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/render"
	"github.com/starford/coursepress/internal/resolver"
	"github.com/starford/coursepress/internal/sse"
	"github.com/starford/coursepress/internal/store"
)

// Sync triggers.
const (
	TriggerHTTP    = "http"
	TriggerCLI     = "cli"
	TriggerWatch   = "watch"
	TriggerMCP     = "mcp"
	TriggerStartup = "startup"
)

// Notifier receives sync outcomes.
type Notifier interface {
	PublishSync(sse.SyncSummary)
}

// Report is the outcome of one sync.
type Report struct {
	RunID      string             `json:"runId"`
	Trigger    string             `json:"trigger"`
	Posts      []models.Summary   `json:"posts"`
	Errors     []ingest.FileError `json:"errors"`
	Warnings   []ingest.Warning   `json:"warnings"`
	Export     *export.Manifest   `json:"export,omitempty"`
	StartedAt  time.Time          `json:"startedAt"`
	FinishedAt time.Time          `json:"finishedAt"`
}

// PostDetail is a post with its rendered body.
type PostDetail struct {
	models.Post
	HTML     string           `json:"html"`
	Headings []render.Heading `json:"headings"`
}

// Config locates the content tree and the export directory.
type Config struct {
	ContentDir string
	ExportDir  string
}

// Service is the single entry point for sync runs and reads.
type Service struct {
	cfg      Config
	runner   *ingest.Runner
	store    store.Store
	exporter *export.Exporter
	resolver *resolver.Resolver
	renderer *render.Renderer
	notifier Notifier
	clock    clock.Clock
	logger   *slog.Logger

	syncMu sync.Mutex
}

// NewService wires the service. notifier may be nil.
func NewService(cfg Config, runner *ingest.Runner, st store.Store, exp *export.Exporter,
	res *resolver.Resolver, notifier Notifier, c clock.Clock, logger *slog.Logger,
) *Service {
	if c == nil {
		c = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		runner:   runner,
		store:    st,
		exporter: exp,
		resolver: res,
		renderer: render.New(),
		notifier: notifier,
		clock:    c,
		logger:   logger,
	}
}

// Sync ingests the content tree, re-exports the static artifacts from the
// store and drops the resolver cache. Only one sync runs at a time; a
// concurrent call fails with apperr.ErrSyncInProgress.
func (s *Service) Sync(ctx context.Context, trigger string) (*Report, error) {
	if !s.syncMu.TryLock() {
		return nil, apperr.ErrSyncInProgress
	}
	defer s.syncMu.Unlock()

	rep := &Report{Trigger: trigger, StartedAt: s.clock.Now().UTC()}
	res, err := s.runner.Ingest(ctx, s.cfg.ContentDir)
	if res != nil {
		rep.RunID = res.RunID
		rep.Errors = res.Errors
		rep.Warnings = res.Warnings
		rep.Posts = make([]models.Summary, 0, len(res.Posts))
		for _, p := range res.Posts {
			rep.Posts = append(rep.Posts, p.Summarize())
		}
	}
	if err != nil {
		return nil, s.fail(rep, err)
	}

	m, err := s.ExportFromStore(ctx)
	if err != nil {
		return nil, s.fail(rep, err)
	}
	rep.Export = m
	rep.FinishedAt = s.clock.Now().UTC()

	s.logger.Info("sync: completed",
		slog.String("run_id", rep.RunID),
		slog.String("trigger", trigger),
		slog.Int("posts", len(rep.Posts)),
		slog.Int("errors", len(rep.Errors)),
		slog.Int("warnings", len(rep.Warnings)))
	if s.notifier != nil {
		s.notifier.PublishSync(sse.SyncSummary{
			RunID:    rep.RunID,
			Trigger:  trigger,
			Posts:    len(rep.Posts),
			Errors:   len(rep.Errors),
			Warnings: len(rep.Warnings),
		})
	}
	return rep, nil
}

func (s *Service) fail(rep *Report, err error) error {
	s.logger.Error("sync: failed",
		slog.String("run_id", rep.RunID),
		slog.String("trigger", rep.Trigger),
		slog.Bool("retryable", apperr.IsRetryable(err)),
		slog.String("error", err.Error()))
	if s.notifier != nil {
		s.notifier.PublishSync(sse.SyncSummary{RunID: rep.RunID, Trigger: rep.Trigger, Error: err.Error()})
	}
	return err
}

// ExportFromStore writes the static artifacts from the committed posts and
// clears the resolver cache.
func (s *Service) ExportFromStore(ctx context.Context) (*export.Manifest, error) {
	posts, err := s.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: read store: %w", err)
	}
	m, err := s.exporter.Export(ctx, posts, s.cfg.ExportDir)
	if err != nil {
		return nil, err
	}
	s.resolver.ClearCache()
	return m, nil
}

// ListPosts returns every post and the tier that answered.
func (s *Service) ListPosts(ctx context.Context) ([]models.Post, string) {
	return s.resolver.All(ctx)
}

// PostsBySection returns the posts of one section.
func (s *Service) PostsBySection(ctx context.Context, section string) ([]models.Post, string) {
	return s.resolver.BySection(ctx, section)
}

// PostsByCategory returns the posts of one category.
func (s *Service) PostsByCategory(ctx context.Context, category string) ([]models.Post, string) {
	return s.resolver.ByCategory(ctx, category)
}

// Metadata returns the corpus metadata.
func (s *Service) Metadata(ctx context.Context) (*models.Metadata, string) {
	return s.resolver.Metadata(ctx)
}

// GetPost returns one post with its body rendered to HTML, or
// apperr.ErrNotFound.
func (s *Service) GetPost(ctx context.Context, slug string) (*PostDetail, string, error) {
	p, source := s.resolver.BySlug(ctx, slug)
	if p == nil {
		return nil, source, apperr.ErrNotFound
	}
	out, err := s.renderer.Render([]byte(p.Content))
	if err != nil {
		return nil, source, fmt.Errorf("render %s: %w", slug, err)
	}
	return &PostDetail{Post: *p, HTML: out.HTML, Headings: out.Headings}, source, nil
}

// Search runs a full-text search against the store.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	return s.store.Search(ctx, query, limit)
}

// ClearCache drops the resolver cache.
func (s *Service) ClearCache() {
	s.resolver.ClearCache()
}

// StoreStatus reports the store driver and whether it answers.
func (s *Service) StoreStatus(ctx context.Context) (driver string, connected bool) {
	err := s.store.Ping(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("health: store ping failed", slog.String("error", err.Error()))
	}
	return s.store.Driver(), err == nil
}
