// Package normalize reconciles raw front matter into the canonical Post record.
package normalize

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/starford/coursepress/internal/classify"
	"github.com/starford/coursepress/internal/clock"
	"github.com/starford/coursepress/internal/frontmatter"
	"github.com/starford/coursepress/internal/models"
	"github.com/starford/coursepress/internal/slug"
)

// Defaults applied when neither metadata nor placement provide a value.
const (
	DefaultTitle    = "Untitled"
	DefaultCategory = "uncategorized"
)

var difficultyLevels = map[string]int{
	"basic":        1,
	"intermediate": 2,
	"advanced":     3,
}

var numberPrefix = regexp.MustCompile(`^(\d+)`)

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.DateTime,
	"2006-01-02 15:04",
	"2006/01/02",
}

// input is everything a field candidate may look at.
type input struct {
	meta     map[string]any
	filename string
	hint     classify.Placement
	now      time.Time
}

// candidate yields a field value when its source has one.
type candidate func(in *input) (any, bool)

// rule lists the candidates for one field in precedence order; the first
// candidate that reports ok wins.
type rule struct {
	field      string
	candidates []candidate
	assign     func(p *models.Post, v any)
}

var precedence = []rule{
	{
		field:      "slug",
		candidates: []candidate{metaSlug, fileSlug},
		assign:     func(p *models.Post, v any) { p.Slug = v.(string) },
	},
	{
		field:      "title",
		candidates: []candidate{metaString("title"), fileStem, constant(DefaultTitle)},
		assign:     func(p *models.Post, v any) { p.Title = v.(string) },
	},
	{
		field:      "section",
		candidates: []candidate{slugged(metaString("section")), slugged(hintSection), constant(classify.DefaultSection)},
		assign:     func(p *models.Post, v any) { p.Section = v.(string) },
	},
	{
		field:      "category",
		candidates: []candidate{metaString("category"), hintCategory, constant(DefaultCategory)},
		assign:     func(p *models.Post, v any) { p.Category = v.(string) },
	},
	{
		field:      "date",
		candidates: []candidate{metaDate, today},
		assign:     func(p *models.Post, v any) { p.Date = v.(string) },
	},
	{
		field:      "number",
		candidates: []candidate{metaInt("number", true), filePrefix, constant(0)},
		assign:     func(p *models.Post, v any) { p.Number = v.(int) },
	},
	{
		field:      "level",
		candidates: []candidate{metaInt("level", false), difficultyLevel},
		assign: func(p *models.Post, v any) {
			level := v.(int)
			p.Level = &level
		},
	},
	{
		field:      "difficulty",
		candidates: []candidate{lower(metaString("difficulty"))},
		assign:     func(p *models.Post, v any) { p.Difficulty = v.(string) },
	},
}

// Normalizer builds Post records. The clock only feeds the date default.
type Normalizer struct {
	Clock clock.Clock
}

// New returns a Normalizer reading time from c.
func New(c clock.Clock) *Normalizer {
	if c == nil {
		c = clock.System{}
	}
	return &Normalizer{Clock: c}
}

// Normalize builds the canonical post for one document. filename is the
// base name of the source file; hint is its directory placement, which
// explicit metadata always overrides.
func (n *Normalizer) Normalize(meta map[string]any, body, filename string, hint classify.Placement) models.Post {
	if meta == nil {
		meta = map[string]any{}
	}
	in := &input{
		meta:     meta,
		filename: filepath.Base(filename),
		hint:     hint,
		now:      n.Clock.Now(),
	}

	var p models.Post
	for _, r := range precedence {
		for _, c := range r.candidates {
			if v, ok := c(in); ok {
				r.assign(&p, v)
				break
			}
		}
	}
	p.ID = p.Slug
	p.Content = strings.TrimSpace(body)
	p.Tags = frontmatter.Tags(meta)
	return p
}

func constant(v any) candidate {
	return func(*input) (any, bool) { return v, true }
}

func lower(c candidate) candidate {
	return func(in *input) (any, bool) {
		v, ok := c(in)
		if !ok {
			return nil, false
		}
		return strings.ToLower(v.(string)), true
	}
}

// slugged reduces the value of c to a canonical slug so it is safe as a
// path segment. A value with nothing left counts as absent.
func slugged(c candidate) candidate {
	return func(in *input) (any, bool) {
		v, ok := c(in)
		if !ok {
			return nil, false
		}
		s := slug.Clean(v.(string))
		return s, s != ""
	}
}

func metaString(key string) candidate {
	return func(in *input) (any, bool) {
		s, ok := stringValue(in.meta[key])
		return s, ok
	}
}

func metaSlug(in *input) (any, bool) {
	s, ok := stringValue(in.meta["slug"])
	if !ok {
		return nil, false
	}
	if !slug.Valid(s) {
		s = slug.Generate(s)
	}
	return s, true
}

func fileSlug(in *input) (any, bool) {
	return slug.Generate(in.filename), true
}

func fileStem(in *input) (any, bool) {
	stem := strings.TrimSpace(strings.TrimSuffix(in.filename, ".md"))
	return stem, stem != ""
}

func hintSection(in *input) (any, bool) {
	return in.hint.Section, in.hint.Section != ""
}

func hintCategory(in *input) (any, bool) {
	return in.hint.Category, in.hint.Category != ""
}

func metaDate(in *input) (any, bool) {
	switch v := in.meta["date"].(type) {
	case time.Time:
		if v.IsZero() {
			return nil, false
		}
		return v.Format(time.DateOnly), true
	case string:
		if d, ok := ParseDate(v); ok {
			return d, true
		}
		// Kept verbatim so Validate rejects it instead of defaulting to today.
		s := strings.TrimSpace(v)
		return s, s != ""
	default:
		return nil, false
	}
}

func today(in *input) (any, bool) {
	return in.now.UTC().Format(time.DateOnly), true
}

// metaInt coerces key to an integer. When allowZero is false, values below
// one are treated as absent.
func metaInt(key string, allowZero bool) candidate {
	return func(in *input) (any, bool) {
		n, ok := intValue(in.meta[key])
		if !ok || n < 0 || (!allowZero && n == 0) {
			return nil, false
		}
		return n, true
	}
}

func filePrefix(in *input) (any, bool) {
	m := numberPrefix.FindStringSubmatch(in.filename)
	if m == nil {
		return nil, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	return n, true
}

func difficultyLevel(in *input) (any, bool) {
	d, ok := stringValue(in.meta["difficulty"])
	if !ok {
		return nil, false
	}
	if level, known := difficultyLevels[strings.ToLower(d)]; known {
		return level, true
	}
	return 1, true
}

// ParseDate normalizes s to YYYY-MM-DD when it matches one of the accepted layouts.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), true
		}
	}
	return "", false
}

func stringValue(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case time.Time:
		s = t.Format(time.DateOnly)
	default:
		s = fmt.Sprint(t)
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func intValue(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		if t > math.MaxInt32 {
			return 0, false
		}
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
