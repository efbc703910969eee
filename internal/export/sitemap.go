package export

import (
	"encoding/xml"
	"sort"
	"strings"

	"github.com/starford/coursepress/internal/models"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// buildSitemap lists the home page, one page per section and one page per
// post at /<section>/posts/<slug>.
func buildSitemap(baseURL string, posts []models.Post, today string) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	set := urlSet{XMLNS: sitemapNS}
	set.URLs = append(set.URLs, sitemapURL{Loc: base + "/", LastMod: today, ChangeFreq: "daily", Priority: "1.0"})

	sections := map[string]struct{}{}
	for _, p := range posts {
		sections[p.Section] = struct{}{}
	}
	names := make([]string, 0, len(sections))
	for s := range sections {
		names = append(names, s)
	}
	sort.Strings(names)
	for _, s := range names {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + "/" + s, LastMod: today, ChangeFreq: "weekly", Priority: "0.8"})
	}

	for _, p := range posts {
		lastMod := p.Date
		if !p.UpdatedAt.IsZero() {
			lastMod = p.UpdatedAt.UTC().Format("2006-01-02")
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + "/" + p.Section + "/posts/" + p.Slug,
			LastMod:    lastMod,
			ChangeFreq: "monthly",
			Priority:   "0.7",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
