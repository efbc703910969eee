package export

import (
	"time"

	"github.com/starford/coursepress/internal/models"
)

// BuildMetadata aggregates posts into the metadata document. posts must
// already be in export order (models.SortPosts); the order decides ties.
func BuildMetadata(posts []models.Post, now time.Time) *models.Metadata {
	md := models.EmptyMetadata(now)
	md.TotalPosts = len(posts)

	var latest *models.Post
	for i := range posts {
		p := &posts[i]

		sec := md.Sections[p.Section]
		sec.Count++
		if p.Date > sec.LatestDate {
			sec.LatestDate = p.Date
		}
		sec.Posts = append(sec.Posts, models.PostRef{Slug: p.Slug, Title: p.Title, Date: p.Date})
		md.Sections[p.Section] = sec

		cat, seen := md.Categories[p.Category]
		cat.Count++
		if !seen {
			cat.Section = p.Section
		}
		md.Categories[p.Category] = cat

		if latest == nil || p.Date > latest.Date {
			latest = p
		}
	}

	md.Stats = models.Stats{
		TotalPosts:     len(posts),
		ActiveSections: len(md.Sections),
	}
	if latest != nil {
		md.Stats.LatestPost = &models.LatestPost{
			Slug:    latest.Slug,
			Title:   latest.Title,
			Date:    latest.Date,
			Section: latest.Section,
		}
	}
	return md
}
