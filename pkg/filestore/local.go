package filestore

import (
	"context"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

const nodeModules = "node_modules"

// Local is a Store backed by a directory on disk.
type Local struct {
	root string
}

// NewLocal creates a store rooted at dir.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", dir)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "project root %s", dir)
	}
	if !info.IsDir() {
		return nil, errors.New(errors.ErrCodeInvalidPath, "project root %s is not a directory", dir)
	}
	return &Local{root: abs}, nil
}

// Root returns the absolute project directory.
func (l *Local) Root(context.Context) (string, error) { return l.root, nil }

// ReadFile reads loc relative to the project directory.
func (l *Local) ReadFile(_ context.Context, loc string) ([]byte, error) {
	clean, err := Clean(loc)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(l.abs(clean))
}

// Exists reports whether loc is a regular file (symlinks are followed).
func (l *Local) Exists(_ context.Context, loc string) bool {
	clean, err := Clean(loc)
	if err != nil {
		return false
	}
	info, err := os.Stat(l.abs(clean))
	return err == nil && info.Mode().IsRegular()
}

// PackageFiles returns the root descriptor (when present) and every
// package.json below node_modules.
func (l *Local) PackageFiles(ctx context.Context) ([]string, error) {
	var files []string
	if l.Exists(ctx, "package.json") {
		files = append(files, "package.json")
	}
	err := l.walk(ctx, func(loc string, _ fs.FileInfo) {
		if IsPackageFile(loc) {
			files = append(files, loc)
		}
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// InstallSize sums the sizes of all files below node_modules.
// A project without node_modules has size zero.
func (l *Local) InstallSize(ctx context.Context) (int64, error) {
	var total int64
	err := l.walk(ctx, func(_ string, info fs.FileInfo) {
		total += info.Size()
	})
	return total, err
}

func (l *Local) abs(loc string) string {
	return filepath.Join(l.root, filepath.FromSlash(loc))
}

// walk visits every regular file below node_modules, following symlinked
// directories once per real path.
func (l *Local) walk(ctx context.Context, fn func(loc string, info fs.FileInfo)) error {
	start := l.abs(nodeModules)
	if info, err := os.Stat(start); err != nil || !info.IsDir() {
		return nil
	}
	seen := make(map[string]bool)
	return walkDir(ctx, start, nodeModules, seen, fn)
}

func walkDir(ctx context.Context, dir, loc string, seen map[string]bool, fn func(string, fs.FileInfo)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil
	}
	if seen[real] {
		return nil
	}
	seen[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		child := path.Join(loc, e.Name())

		// Stat follows symlinks; unreadable or dangling entries are skipped.
		info, err := os.Stat(full)
		if err != nil {
			continue
		}
		if info.IsDir() {
			if err := walkDir(ctx, full, child, seen, fn); err != nil {
				return err
			}
			continue
		}
		if info.Mode().IsRegular() {
			fn(child, info)
		}
	}
	return nil
}

var _ Store = (*Local)(nil)
