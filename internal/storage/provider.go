// Package storage defines the rooted file-system abstraction used for the
// content tree and the static export directory.
package storage

import "time"

const tmpPrefix = ".coursepress-tmp-"

// FileInfo describes one file found by List. Err is set for an entry below
// the listed directory that could not be read; such entries carry no size.
type FileInfo struct {
	Path    string // slash-separated, relative to the root
	Size    int64
	ModTime time.Time
	Err     error
}

// Provider is the interface for rooted file operations.
type Provider interface {
	// List returns every file under dir (relative to root) ending in ext, in lexical walk order.
	// Only a failure on dir itself is returned as an error.
	List(dir, ext string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}

var _ Provider = (*FS)(nil)
