package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte(`[{"slug":"intro"}]`)
	if err := s.Write("posts.json", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("posts.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("sections/ai.json", []byte("[]")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("sections/ai.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("content = %q", got)
	}
}

func TestDelete(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("del.json", []byte("bye"))
	if err := s.Delete("del.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.json"); err == nil {
		t.Error("expected error reading deleted file")
	}
}

func TestList_FiltersExtensionInLexicalOrder(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("python/02-b.md", []byte("b"))
	_ = s.Write("ai/01-a.md", []byte("a"))
	_ = s.Write("root.md", []byte("r"))
	_ = s.Write("readme.txt", []byte("not md"))

	items, err := s.List("", ".md")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"ai/01-a.md", "python/02-b.md", "root.md"}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d (%+v)", len(items), len(want), items)
	}
	for i, w := range want {
		if items[i].Path != w {
			t.Errorf("items[%d] = %q, want %q", i, items[i].Path, w)
		}
	}
}

func TestList_MissingRootErrors(t *testing.T) {
	s := tempRoot(t)
	if _, err := s.List("nope", ".md"); err == nil {
		t.Error("expected error listing missing dir")
	}
}

// failingWalk reports fs.ErrPermission for the named entries and walks the
// rest of the tree normally.
func failingWalk(names ...string) WalkFunc {
	return func(root string, fn fs.WalkDirFunc) error {
		return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			for _, n := range names {
				if err == nil && d.Name() == n {
					return fn(p, d, fs.ErrPermission)
				}
			}
			return fn(p, d, err)
		})
	}
}

func TestList_UnreadableEntriesAreRecorded(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir, WithWalk(failingWalk("locked", "02-bad.md")))
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Write("ai/01-ok.md", []byte("a"))
	_ = s.Write("ai/02-bad.md", []byte("b"))
	_ = s.Write("locked/01-hidden.md", []byte("c"))
	_ = s.Write("python/01-ok.md", []byte("d"))

	items, err := s.List("", ".md")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []struct {
		path   string
		failed bool
	}{
		{"ai/01-ok.md", false},
		{"ai/02-bad.md", true},
		{"locked", true},
		{"python/01-ok.md", false},
	}
	if len(items) != len(want) {
		t.Fatalf("len = %d, want %d (%+v)", len(items), len(want), items)
	}
	for i, w := range want {
		if items[i].Path != w.path {
			t.Errorf("items[%d].Path = %q, want %q", i, items[i].Path, w.path)
		}
		if got := items[i].Err != nil; got != w.failed {
			t.Errorf("items[%d] failed = %v, want %v", i, got, w.failed)
		}
		if w.failed && !errors.Is(items[i].Err, fs.ErrPermission) {
			t.Errorf("items[%d].Err = %v", i, items[i].Err)
		}
	}
}

func TestList_RootWalkErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFS(dir, WithWalk(func(root string, fn fs.WalkDirFunc) error {
		return fn(root, nil, fs.ErrPermission)
	}))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.List("", ".md"); !errors.Is(err, fs.ErrPermission) {
		t.Errorf("err = %v, want ErrPermission", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("atomic.json", []byte("original"))

	if err := s.Write("atomic.json", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.json")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "coursepress-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
