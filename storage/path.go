// Package storage implements the on-disk side of the app: mapping logical
// file names to physical paths, writing uploads and handing out downloads
package storage

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyFilename = errors.New("no filename provided")
	ErrPathEscapes   = errors.New("path escapes the user's storage root")
)

// Resolver maps (owner, name, dir) to a physical location below Root.
// It never touches the filesystem, directories are created lazily by
// whoever is about to write.
type Resolver struct {
	Root string
}

func NewResolver(root string) *Resolver {
	return &Resolver{Root: filepath.Clean(root)}
}

// Resolve returns the physical path root/username/dir/name. Anything that
// would land outside root/username is rejected, this is the only traversal
// guard in the write and read paths so it has to hold.
func (r *Resolver) Resolve(username, name, dir string) (string, error) {
	if name == "" {
		return "", ErrEmptyFilename
	}

	// "." and ".." are path segments, not filenames. "." is the nastier
	// one: it resolves to the user root itself, and writing a regular
	// file there wedges every later upload for that user
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", ErrPathEscapes
	}

	userRoot := filepath.Join(r.Root, username)

	dir = strings.TrimLeft(dir, `/\`)
	resolved := filepath.Clean(filepath.Join(userRoot, filepath.FromSlash(dir), name))

	if !within(userRoot, resolved) {
		return "", ErrPathEscapes
	}

	return resolved, nil
}

func within(root, candidate string) bool {
	root = filepath.Clean(root)
	if candidate == root {
		return true
	}

	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}

	return strings.HasPrefix(candidate, root)
}
