package ingest

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/coursepress/internal/apperr"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/storage"
	"github.com/starford/coursepress/internal/store"
	"github.com/starford/coursepress/internal/testutil"
)

var t0 = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newRunner(t *testing.T, st store.Store, opts Options) (*Runner, *clock.Manual) {
	t.Helper()
	c := clock.NewManual(t0)
	return NewRunner(st, c, opts, testutil.Logger()), c
}

func TestIngest_EndToEnd(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"ai/05-transformers.md": "---\ntitle: Transformers\ndifficulty: advanced\n---\n# Hello\n",
	})
	st := testutil.TestStore(t)
	r, _ := newRunner(t, st, Options{})

	res, err := r.Ingest(context.Background(), root)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !res.Committed || res.RunID == "" {
		t.Errorf("result = %+v", res)
	}

	got, err := st.BySlug(context.Background(), "05-transformers")
	if err != nil {
		t.Fatalf("BySlug: %v", err)
	}
	if got.Title != "Transformers" || got.Section != "ai" || got.Category != "uncategorized" {
		t.Errorf("post = %+v", got)
	}
	if got.Level == nil || *got.Level != 3 || got.Number != 5 || got.Content != "# Hello" {
		t.Errorf("post = %+v", got)
	}
	if got.ID != got.Slug || got.SourcePath != "ai/05-transformers.md" || got.Checksum == "" {
		t.Errorf("post = %+v", got)
	}
}

func TestIngest_ReingestKeepsCreatedAt(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"python/01-basics.md": "---\ntitle: Basics\ndate: 2024-01-01\n---\nbody",
	})
	st := testutil.TestStore(t)
	r, c := newRunner(t, st, Options{})
	ctx := context.Background()

	if _, err := r.Ingest(ctx, root); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	c.Advance(time.Hour)
	if _, err := r.Ingest(ctx, root); err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	got, _ := st.BySlug(ctx, "01-basics")
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("createdAt = %v, want %v", got.CreatedAt, t0)
	}
	if !got.UpdatedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("updatedAt = %v, want %v", got.UpdatedAt, t0.Add(time.Hour))
	}
}

func TestLoad_BadFilesAreSkipped(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"ai/good.md":         "---\ntitle: Good\n---\nok",
		"ai/unterminated.md": "---\ntitle: Broken\nno closing",
		"ai/invalid.md":      "---\ntitle: [unclosed\n---\nbody",
		"notes.txt":          "ignored",
	})
	r, _ := newRunner(t, nil, Options{})

	res, err := r.Load(context.Background(), root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Posts) != 1 || res.Posts[0].Slug != "good" {
		t.Fatalf("posts = %+v", res.Posts)
	}
	if len(res.Errors) != 2 {
		t.Fatalf("errors = %+v", res.Errors)
	}
	var sawUnterminated bool
	for _, fe := range res.Errors {
		if errors.Is(fe, apperr.ErrUnterminatedFrontMatter) {
			sawUnterminated = true
		}
	}
	if !sawUnterminated {
		t.Error("expected an unterminated front matter error")
	}
}

func TestLoad_UnreadableEntriesAreFileErrors(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"ai/01-good.md":       "---\ntitle: Good\n---\nok",
		"locked/01-hidden.md": "---\ntitle: Hidden\n---\n",
		"python/01-vars.md":   "---\ntitle: Vars\n---\n",
	})
	r, _ := newRunner(t, nil, Options{})
	r.fsOpts = []storage.Option{storage.WithWalk(func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && d.Name() == "locked" {
				return fn(p, d, fs.ErrPermission)
			}
			return fn(p, d, err)
		})
	})}

	res, err := r.Load(context.Background(), root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Posts) != 2 {
		t.Errorf("posts = %+v", res.Posts)
	}
	if len(res.Errors) != 1 || res.Errors[0].Path != "locked" || !errors.Is(res.Errors[0], fs.ErrPermission) {
		t.Errorf("errors = %+v", res.Errors)
	}
}

func TestLoad_UnparseableDateIsFileError(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"ai/01-ok.md":  "---\ntitle: Ok\ndate: 2024-02-03\n---\n",
		"ai/02-bad.md": "---\ntitle: Bad\ndate: next tuesday\n---\n",
	})
	r, _ := newRunner(t, nil, Options{})

	res, err := r.Load(context.Background(), root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Posts) != 1 || res.Posts[0].Slug != "01-ok" {
		t.Errorf("posts = %+v", res.Posts)
	}
	if len(res.Errors) != 1 || res.Errors[0].Path != "ai/02-bad.md" || !errors.Is(res.Errors[0], apperr.ErrInvalidPost) {
		t.Errorf("errors = %+v", res.Errors)
	}
}

func TestLoad_SectionIsSlugified(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"ai/01-a.md": "---\ntitle: A\nsection: ../../escape\n---\n",
		"ai/02-b.md": "---\ntitle: B\nsection: Web/Frontend\n---\n",
	})
	r, _ := newRunner(t, nil, Options{})

	res, err := r.Load(context.Background(), root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Posts) != 2 || len(res.Errors) != 0 {
		t.Fatalf("posts = %+v, errors = %+v", res.Posts, res.Errors)
	}
	if res.Posts[0].Section != "escape" || res.Posts[1].Section != "web-frontend" {
		t.Errorf("sections = %q, %q", res.Posts[0].Section, res.Posts[1].Section)
	}
}

func TestLoad_RequiredFields(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"a.md": "---\ntitle: A\ndate: 2024-01-01\n---\n",
		"b.md": "---\ntitle: B\n---\n",
	})
	r, _ := newRunner(t, nil, Options{RequiredFields: []string{"title", "date"}})

	res, err := r.Load(context.Background(), root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Posts) != 1 || res.Posts[0].Slug != "a" {
		t.Errorf("posts = %+v", res.Posts)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Path != "b.md" {
		t.Errorf("warnings = %+v", res.Warnings)
	}
}

func TestLoad_DuplicateSlugLastWins(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"ai/intro.md":     "---\ntitle: First\n---\n",
		"python/intro.md": "---\ntitle: Second\n---\n",
	})
	r, _ := newRunner(t, nil, Options{})

	res, err := r.Load(context.Background(), root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(res.Posts) != 1 {
		t.Fatalf("posts = %+v", res.Posts)
	}
	if res.Posts[0].Title != "Second" || res.Posts[0].Section != "python" {
		t.Errorf("winner = %+v", res.Posts[0])
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %+v", res.Warnings)
	}
}

func TestLoad_DefaultsWithoutFrontMatter(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"Getting Started.md": "plain body",
	})
	r, _ := newRunner(t, nil, Options{})

	res, err := r.Load(context.Background(), root)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p := res.Posts[0]
	if p.Slug != "getting-started" || p.Title != "Getting Started" || p.Section != "general" {
		t.Errorf("post = %+v", p)
	}
	if p.Date != "2024-05-01" {
		t.Errorf("date = %q, want clock day", p.Date)
	}
}

func TestLoad_MissingRootIsFatal(t *testing.T) {
	r, _ := newRunner(t, nil, Options{})
	_, err := r.Load(context.Background(), filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, apperr.ErrContentRoot) {
		t.Errorf("err = %v, want ErrContentRoot", err)
	}
}

func TestLoad_CustomExtension(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{
		"a.markdown": "---\ntitle: A\n---\n",
		"b.md":       "---\ntitle: B\n---\n",
	})
	r, _ := newRunner(t, nil, Options{Extension: ".markdown"})

	res, _ := r.Load(context.Background(), root)
	if len(res.Posts) != 1 || res.Posts[0].Title != "A" {
		t.Errorf("posts = %+v", res.Posts)
	}
}

type failingStore struct {
	store.Store
	err error
}

func (f failingStore) UpsertBatch(context.Context, []models.Post, time.Time) error { return f.err }

func TestIngest_StoreFailureIsFatal(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{"a.md": "body"})
	r, _ := newRunner(t, failingStore{err: apperr.ErrStoreUnavailable}, Options{})

	res, err := r.Ingest(context.Background(), root)
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if res == nil || res.Committed {
		t.Errorf("result = %+v", res)
	}
	if apperr.IsRetryable(err) {
		t.Error("unavailable store should not be retryable")
	}
}

type slowStore struct {
	store.Store
}

func (slowStore) UpsertBatch(ctx context.Context, _ []models.Post, _ time.Time) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestIngest_StoreTimeoutIsRetryable(t *testing.T) {
	root := testutil.TestContent(t, map[string]string{"a.md": "body"})
	r, _ := newRunner(t, slowStore{}, Options{Timeout: 10 * time.Millisecond})

	_, err := r.Ingest(context.Background(), root)
	if !errors.Is(err, apperr.ErrStoreTimeout) {
		t.Fatalf("err = %v, want ErrStoreTimeout", err)
	}
	if !apperr.IsRetryable(err) {
		t.Error("timeout should be retryable")
	}
}

func TestIngest_NoStore(t *testing.T) {
	r, _ := newRunner(t, nil, Options{})
	if _, err := r.Ingest(context.Background(), t.TempDir()); err == nil {
		t.Fatal("expected error without store")
	}
}
