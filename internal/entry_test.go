package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/coursepress/internal/export"
	"github.com/starford/coursepress/internal/store"
	"github.com/starford/coursepress/internal/testutil"
)

func testConfig(t *testing.T, driver string) *Config {
	t.Helper()
	root := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Content.Path = testutil.TestContent(t, map[string]string{
		"ai/05-transformers.md": "---\ntitle: Transformers\n---\nbody\n",
		"python/01-basics.md":   "---\ntitle: Basics\n---\nbody\n",
		"broken.md":             "---\ntitle: [unclosed\n---\n",
	})
	cfg.Store.Driver = driver
	cfg.Store.Path = filepath.Join(root, "posts.db")
	cfg.Export.Path = filepath.Join(root, "data")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestRunSyncThenExport(t *testing.T) {
	for _, driver := range []string{store.DriverSQLite, store.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			cfg := testConfig(t, driver)
			ctx := context.Background()

			rep, err := RunSync(ctx, WithConfig(cfg))
			if err != nil {
				t.Fatalf("RunSync: %v", err)
			}
			if len(rep.Posts) != 2 || len(rep.Errors) != 1 {
				t.Errorf("report: %d posts, %d errors", len(rep.Posts), len(rep.Errors))
			}

			if err := os.RemoveAll(cfg.Export.Path); err != nil {
				t.Fatal(err)
			}
			m, err := RunExport(ctx, WithConfig(cfg))
			if err != nil {
				t.Fatalf("RunExport: %v", err)
			}
			if m.TotalPosts != 2 || len(m.Sections) != 2 {
				t.Errorf("manifest = %+v", m)
			}
			for _, f := range []string{export.PostsFile, export.MetadataFile, export.SitemapFile, export.SectionFile("ai")} {
				if _, err := os.Stat(filepath.Join(cfg.Export.Path, f)); err != nil {
					t.Errorf("%s missing: %v", f, err)
				}
			}
		})
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err != errConfigRequired {
		t.Errorf("err = %v, want errConfigRequired", err)
	}
	if _, err := RunSync(context.Background()); err != errConfigRequired {
		t.Errorf("err = %v, want errConfigRequired", err)
	}
}
