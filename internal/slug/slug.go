// Package slug derives URL-safe post identifiers from file names.
package slug

import (
	"regexp"
	"strings"

	"github.com/starford/coursepress/internal/checksum"
)

// FallbackPrefix starts every slug generated for names without any
// alphanumeric character.
const FallbackPrefix = "post-"

var (
	invalidRun = regexp.MustCompile(`[^a-z0-9-]+`)
	dashRun    = regexp.MustCompile(`-{2,}`)
	canonical  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate returns the slug for filename: the .md extension is stripped,
// the name lower-cased, every run of characters outside [a-z0-9-] replaced
// by a single dash, and dashes collapsed and trimmed.
//
// A name that leaves nothing behind gets FallbackPrefix plus a short
// digest of the original name, so the result is never empty.
func Generate(filename string) string {
	s := Clean(strings.TrimSuffix(filename, ".md"))
	if s == "" {
		return FallbackPrefix + checksum.Short(filename, 8)
	}
	return s
}

// Clean reduces s to canonical slug form, or "" when no alphanumeric
// character survives.
func Clean(s string) string {
	s = strings.ToLower(s)
	s = invalidRun.ReplaceAllString(s, "-")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Valid reports whether s is already in canonical slug form.
func Valid(s string) bool {
	return canonical.MatchString(s)
}
