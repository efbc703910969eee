package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	cases := map[string]string{
		"05-transformers.md":     "05-transformers",
		"Hello World.md":         "hello-world",
		"  Deep__Learning!!.md":  "deep-learning",
		"--already-slugged--.md": "already-slugged",
		"a---b.md":               "a-b",
		"日本語-intro.md":           "intro",
		"no-extension":           "no-extension",
		"UPPER.MD":               "upper-md",
	}
	for in, want := range cases {
		if got := Generate(in); got != want {
			t.Errorf("Generate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerate_Idempotent(t *testing.T) {
	inputs := []string{
		"05-transformers.md", "Hello World.md", "!!!.md", "", "x", "Über Straße.md", "a.b.c.md",
	}
	for _, in := range inputs {
		once := Generate(in)
		twice := Generate(once + ".md")
		if once != twice {
			t.Errorf("Generate not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestGenerate_NoAlphanumerics(t *testing.T) {
	got := Generate("!!!.md")
	if !strings.HasPrefix(got, FallbackPrefix) {
		t.Fatalf("Generate(!!!.md) = %q, want %q prefix", got, FallbackPrefix)
	}
	if got == FallbackPrefix {
		t.Fatal("fallback slug should carry a digest")
	}
	if Generate("!!!.md") != got {
		t.Error("fallback slug should be deterministic")
	}
	if Generate("???.md") == got {
		t.Error("different names should get different fallback slugs")
	}
	if !Valid(got) {
		t.Errorf("fallback slug %q should be canonical", got)
	}
}

func TestValid(t *testing.T) {
	for _, s := range []string{"intro", "01-intro", "a-b-c"} {
		if !Valid(s) {
			t.Errorf("Valid(%q) = false", s)
		}
	}
	for _, s := range []string{"", "-intro", "intro-", "a--b", "Intro", "a b", "a/b"} {
		if Valid(s) {
			t.Errorf("Valid(%q) = true", s)
		}
	}
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"ai":           "ai",
		"../../escape": "escape",
		"Web/Frontend": "web-frontend",
		"My Course":    "my-course",
		"../..":        "",
		"":             "",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}
