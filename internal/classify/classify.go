// Package classify places a content file into its section and category
// from its location below the content root.
package classify

import (
	"path"
	"path/filepath"
	"strings"
)

// DefaultSection is used for files sitting directly under the content root.
const DefaultSection = "general"

// Placement is the grouping derived from a file path.
type Placement struct {
	Section string
	// Category holds the directories between the section and the file,
	// joined with "/". Empty when the file sits directly in its section.
	Category string
}

// Classify derives the placement of relPath, a path relative to the content root.
func Classify(relPath string) Placement {
	p := path.Clean(filepath.ToSlash(relPath))
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimPrefix(p, "/")

	dirs := strings.Split(p, "/")
	dirs = dirs[:len(dirs)-1]
	if len(dirs) == 0 || dirs[0] == "." || dirs[0] == "" {
		return Placement{Section: DefaultSection}
	}
	return Placement{
		Section:  strings.ToLower(dirs[0]),
		Category: strings.Join(dirs[1:], "/"),
	}
}
