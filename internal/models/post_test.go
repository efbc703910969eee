package models

import (
	"testing"
	"time"
)

func TestSortPosts(t *testing.T) {
	posts := []Post{
		{Slug: "c", Number: 2, Date: "2024-01-01"},
		{Slug: "b", Number: 1, Date: "2024-01-01"},
		{Slug: "a", Number: 1, Date: "2024-02-01"},
		{Slug: "z", Number: 0, Date: "2023-01-01"},
		{Slug: "y", Number: 1, Date: "2024-01-01"},
	}
	SortPosts(posts)

	want := []string{"z", "a", "b", "y", "c"}
	for i, w := range want {
		if posts[i].Slug != w {
			t.Errorf("posts[%d] = %q, want %q", i, posts[i].Slug, w)
		}
	}
}

func TestSummarize(t *testing.T) {
	p := Post{Slug: "intro", Title: "Intro", Section: "ai", Content: "body"}
	s := p.Summarize()
	if s.Slug != "intro" || s.Title != "Intro" || s.Section != "ai" {
		t.Errorf("summary = %+v", s)
	}
}

func TestEmptyMetadata(t *testing.T) {
	m := EmptyMetadata(time.Time{})
	if m.TotalPosts != 0 || m.Sections == nil || m.Categories == nil {
		t.Errorf("metadata = %+v", m)
	}
	if m.Stats.LatestPost != nil {
		t.Error("latestPost should be nil")
	}
}
