// Package frontmatter splits a Markdown document into its metadata header and body.
package frontmatter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/starford/coursepress/internal/apperr"
)

// Header formats recognized at the top of a document.
const (
	FormatNone = ""
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatJSON = "json"
)

var delimiters = map[string]string{
	"---": FormatYAML,
	"+++": FormatTOML,
	";;;": FormatJSON,
}

// Result holds the output of parsing a Markdown document.
type Result struct {
	Meta   map[string]any
	Body   string
	Format string
}

// Parse extracts the metadata header and the body from raw document bytes.
//
// A document without an opening delimiter yields empty metadata and the full
// text as body. A header that is opened but never closed, or that cannot be
// decoded, is an error.
func Parse(data []byte) (*Result, error) {
	norm := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	trimmed := bytes.TrimLeft(norm, "\n")

	format, ok := detect(trimmed)
	if !ok {
		return &Result{Meta: map[string]any{}, Body: string(norm)}, nil
	}
	if !terminated(trimmed) {
		return nil, apperr.ErrUnterminatedFrontMatter
	}

	var meta map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(trimmed), &meta)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrInvalidFrontMatter, format, err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return &Result{Meta: meta, Body: string(body), Format: format}, nil
}

// detect reports the header format when the first line is a known delimiter.
func detect(data []byte) (string, bool) {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	format, ok := delimiters[string(line)]
	return format, ok
}

// terminated reports whether the opening delimiter line has a matching
// closing line further down.
func terminated(data []byte) bool {
	first, rest, found := bytes.Cut(data, []byte("\n"))
	if !found {
		return false
	}
	delim := string(first)
	for _, line := range strings.Split(string(rest), "\n") {
		if line == delim {
			return true
		}
	}
	return false
}

// Tags collects the "tags" entry from metadata. Both a list and a comma
// separated string are accepted; entries are trimmed and deduplicated.
func Tags(meta map[string]any) []string {
	raw, ok := meta["tags"]
	if !ok || raw == nil {
		return nil
	}

	var items []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			items = append(items, scalar(item))
		}
	case []string:
		items = v
	case string:
		items = strings.Split(v, ",")
	default:
		items = []string{scalar(v)}
	}

	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
