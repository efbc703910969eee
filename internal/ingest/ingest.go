// Package ingest runs one pass over the content tree: every Markdown file is
// parsed, classified and normalized, and the resulting posts are committed
// to the store in a single batch.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/checksum"
	"github.com/starford/coursepress/internal/classify"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/frontmatter"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/normalize"
	"github.com/starford/coursepress/internal/storage"
	"github.com/starford/coursepress/internal/store"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultExtension = ".md"
	DefaultTimeout   = 30 * time.Second
)

// Options tunes a Runner.
type Options struct {
	Extension      string
	RequiredFields []string
	Timeout        time.Duration
}

// FileError records a file that could not be read, parsed or validated.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

func (e FileError) Error() string { return e.Path + ": " + e.Message }

// Unwrap exposes the underlying cause to errors.Is.
func (e FileError) Unwrap() error { return e.Err }

// Warning records a skipped file or an overwritten duplicate.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the outcome of one run.
type Result struct {
	RunID     string        `json:"runId"`
	Posts     []models.Post `json:"posts"`
	Errors    []FileError   `json:"errors"`
	Warnings  []Warning     `json:"warnings"`
	Committed bool          `json:"committed"`
}

// Runner loads posts from a content root and commits them.
type Runner struct {
	store  store.Store
	clock  clock.Clock
	norm   *normalize.Normalizer
	opts   Options
	logger *slog.Logger
	fsOpts []storage.Option
}

// NewRunner creates a Runner. st may be nil for read-only use (Load).
func NewRunner(st store.Store, c clock.Clock, opts Options, logger *slog.Logger) *Runner {
	if c == nil {
		c = clock.System{}
	}
	if opts.Extension == "" {
		opts.Extension = DefaultExtension
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:  st,
		clock:  c,
		norm:   normalize.New(c),
		opts:   opts,
		logger: logger,
	}
}

// Load reads and normalizes every source file under root without touching
// the store. Per-file failures are collected; only an unusable root fails.
func (r *Runner) Load(ctx context.Context, root string) (*Result, error) {
	res := &Result{
		RunID:    uuid.NewString(),
		Posts:    []models.Post{},
		Errors:   []FileError{},
		Warnings: []Warning{},
	}
	log := r.logger.With(slog.String("run_id", res.RunID))

	fsys, err := storage.NewFS(root, r.fsOpts...)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w: %v", apperr.ErrContentRoot, err)
	}
	files, err := fsys.List("", r.opts.Extension)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w: %v", apperr.ErrContentRoot, err)
	}

	bySlug := make(map[string]int, len(files))
	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if fi.Err != nil {
			log.Warn("ingest: unreadable entry", slog.String("path", fi.Path), slog.String("error", fi.Err.Error()))
			res.Errors = append(res.Errors, FileError{Path: fi.Path, Message: fi.Err.Error(), Err: fi.Err})
			continue
		}
		p, skip, err := r.loadFile(fsys, fi.Path)
		if err != nil {
			log.Warn("ingest: file skipped", slog.String("path", fi.Path), slog.String("error", err.Error()))
			res.Errors = append(res.Errors, FileError{Path: fi.Path, Message: err.Error(), Err: err})
			continue
		}
		if skip != "" {
			log.Warn("ingest: file skipped", slog.String("path", fi.Path), slog.String("reason", skip))
			res.Warnings = append(res.Warnings, Warning{Path: fi.Path, Message: skip})
			continue
		}

		if i, dup := bySlug[p.Slug]; dup {
			msg := fmt.Sprintf("duplicate slug %q overrides %s", p.Slug, res.Posts[i].SourcePath)
			log.Warn("ingest: duplicate slug", slog.String("path", fi.Path), slog.String("slug", p.Slug),
				slog.String("previous", res.Posts[i].SourcePath))
			res.Warnings = append(res.Warnings, Warning{Path: fi.Path, Message: msg})
			res.Posts[i] = p
			continue
		}
		bySlug[p.Slug] = len(res.Posts)
		res.Posts = append(res.Posts, p)
	}

	log.Info("ingest: loaded",
		slog.Int("files", len(files)),
		slog.Int("posts", len(res.Posts)),
		slog.Int("errors", len(res.Errors)),
		slog.Int("warnings", len(res.Warnings)))
	return res, nil
}

// loadFile returns the normalized post for rel, or a skip reason when the
// required-field policy rejects the file.
func (r *Runner) loadFile(fsys *storage.FS, rel string) (models.Post, string, error) {
	data, err := fsys.Read(rel)
	if err != nil {
		return models.Post{}, "", err
	}
	doc, err := frontmatter.Parse(data)
	if err != nil {
		return models.Post{}, "", err
	}
	if err := normalize.RequireFields(doc.Meta, r.opts.RequiredFields); err != nil {
		return models.Post{}, err.Error(), nil
	}

	p := r.norm.Normalize(doc.Meta, doc.Body, path.Base(rel), classify.Classify(rel))
	if err := normalize.Validate(p); err != nil {
		return models.Post{}, "", err
	}
	p.SourcePath = rel
	p.Checksum = checksum.Sum(data)
	return p, "", nil
}

// Ingest loads root and commits every post in one atomic batch. A store
// failure fails the whole run; nothing is partially written.
func (r *Runner) Ingest(ctx context.Context, root string) (*Result, error) {
	if r.store == nil {
		return nil, fmt.Errorf("ingest: %w: no store configured", apperr.ErrStoreUnavailable)
	}
	res, err := r.Load(ctx, root)
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	start := time.Now()
	if err := r.store.UpsertBatch(cctx, res.Posts, r.clock.Now()); err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) && !errors.Is(err, apperr.ErrStoreTimeout) {
			err = fmt.Errorf("%w: %v", apperr.ErrStoreTimeout, err)
		}
		r.logger.Error("ingest: commit failed",
			slog.String("run_id", res.RunID),
			slog.Bool("retryable", apperr.IsRetryable(err)),
			slog.String("error", err.Error()))
		return res, fmt.Errorf("ingest: commit: %w", err)
	}
	res.Committed = true

	r.logger.Info("ingest: committed",
		slog.String("run_id", res.RunID),
		slog.Int("posts", len(res.Posts)),
		slog.Duration("took", time.Since(start)))
	return res, nil
}
