// Package models defines the domain types for coursepress.
package models

import "time"

// Post is the canonical content unit produced by ingestion.
type Post struct {
	ID         string    `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Section    string    `json:"section"`
	Category   string    `json:"category"`
	Date       string    `json:"date"`
	Difficulty string    `json:"difficulty,omitempty"`
	Level      *int      `json:"level,omitempty"`
	Number     int       `json:"number"`
	Tags       []string  `json:"tags,omitempty"`
	SourcePath string    `json:"sourcePath,omitempty"`
	Checksum   string    `json:"checksum,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Summary is the short form used in sync responses.
type Summary struct {
	Title   string `json:"title"`
	Section string `json:"section"`
	Slug    string `json:"slug"`
}

// Summarize returns the sync summary of p.
func (p Post) Summarize() Summary {
	return Summary{Title: p.Title, Section: p.Section, Slug: p.Slug}
}

// PostRef is a post reference inside section statistics.
type PostRef struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Date  string `json:"date"`
}

// LatestPost identifies the most recent post of the corpus.
type LatestPost struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Date    string `json:"date"`
	Section string `json:"section"`
}

// SectionStats aggregates one section.
type SectionStats struct {
	Count      int       `json:"count"`
	LatestDate string    `json:"latestDate"`
	Posts      []PostRef `json:"posts"`
}

// CategoryStats aggregates one category.
type CategoryStats struct {
	Count   int    `json:"count"`
	Section string `json:"section"`
}

// Stats holds corpus-wide figures.
type Stats struct {
	TotalPosts     int         `json:"totalPosts"`
	ActiveSections int         `json:"activeSections"`
	LatestPost     *LatestPost `json:"latestPost"`
}

// Metadata is the content of metadata.json.
type Metadata struct {
	TotalPosts  int                      `json:"totalPosts"`
	Sections    map[string]SectionStats  `json:"sections"`
	Categories  map[string]CategoryStats `json:"categories"`
	LastUpdated time.Time                `json:"lastUpdated"`
	Stats       Stats                    `json:"stats"`
}

// EmptyMetadata returns metadata describing an empty corpus.
func EmptyMetadata(now time.Time) *Metadata {
	return &Metadata{
		Sections:    map[string]SectionStats{},
		Categories:  map[string]CategoryStats{},
		LastUpdated: now,
	}
}
