// Package filestore provides uniform read access to a package under analysis.
//
// A [Store] is either a live directory tree ([Local]) or the contents of an
// unpacked .tar.gz archive held in memory ([Memory]). Locations are opaque
// forward-slash paths relative to the package root ("package.json",
// "node_modules/a/package.json"); they are never host filesystem paths, so
// consumers treat both realizations identically.
package filestore

import (
	"context"
	"io/fs"
	"path"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

// Store is read-only access to the files of one package.
// Implementations are safe for concurrent readers.
type Store interface {
	// Root returns a display name for the package root: a directory for
	// Local stores, the archive's top-level directory for Memory stores.
	Root(ctx context.Context) (string, error)
	// PackageFiles lists every package.json location in the store, sorted.
	PackageFiles(ctx context.Context) ([]string, error)
	// ReadFile returns the content at loc. A missing location yields an
	// error wrapping fs.ErrNotExist.
	ReadFile(ctx context.Context, loc string) ([]byte, error)
	// Exists reports whether a regular file exists at loc.
	Exists(ctx context.Context, loc string) bool
	// InstallSize sums the sizes of all installed files in bytes.
	InstallSize(ctx context.Context) (int64, error)
}

// Digester is implemented by stores whose content is addressed by a stable
// hash, which makes their analysis results cacheable.
type Digester interface {
	Digest() string
}

// Clean normalizes a location: leading slashes and "./" are dropped and the
// result is validated against traversal outside the root.
func Clean(loc string) (string, error) {
	loc = strings.TrimLeft(loc, "/")
	loc = strings.TrimPrefix(loc, "./")
	if loc == "" {
		return "", errors.New(errors.ErrCodeInvalidPath, "empty location")
	}
	if err := errors.ValidatePath(loc); err != nil {
		return "", err
	}
	return path.Clean(loc), nil
}

// IsPackageFile reports whether loc names a package.json file.
func IsPackageFile(loc string) bool {
	return path.Base(loc) == "package.json"
}

func notExist(op, loc string) error {
	return &fs.PathError{Op: op, Path: loc, Err: fs.ErrNotExist}
}
