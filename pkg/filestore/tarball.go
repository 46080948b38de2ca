package filestore

import (
	"archive/tar"
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

// MaxUnpackedSize bounds the total size of files extracted from one archive.
const MaxUnpackedSize = 256 << 20

// FromTarball unpacks a gzipped tar archive into a Memory store.
//
// Package managers place every entry under one top-level directory
// ("package/" for npm). That directory is stripped and becomes Root.
// Only regular files are kept; entries whose names escape the archive are
// rejected.
func FromTarball(data []byte) (*Memory, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidTarball, err, "open gzip stream")
	}
	defer gz.Close()

	raw := make(map[string][]byte)
	var total int64
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTarball, err, "read tar entry")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := normalizeEntry(hdr.Name)
		if err := errors.ValidatePath(name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTarball, err, "unsafe entry %q", hdr.Name)
		}
		total += hdr.Size
		if total > MaxUnpackedSize {
			return nil, errors.New(errors.ErrCodeInvalidTarball, "archive exceeds %d bytes unpacked", MaxUnpackedSize)
		}
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidTarball, err, "read %s", name)
		}
		raw[name] = content
	}
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidTarball, "archive contains no files")
	}

	root := commonRoot(raw)
	files := make(map[string][]byte, len(raw))
	for name, content := range raw {
		if root != "" {
			name = strings.TrimPrefix(name, root+"/")
		}
		files[name] = content
	}

	m := NewMemory(root, files)
	m.digest = digest(data)
	return m, nil
}

func normalizeEntry(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	if strings.HasPrefix(name, "/") {
		return name
	}
	return path.Clean(name)
}

// commonRoot returns the single top-level directory shared by every entry,
// or "" if entries do not share one.
func commonRoot(files map[string][]byte) string {
	root := ""
	for name := range files {
		first, _, ok := strings.Cut(name, "/")
		if !ok {
			return ""
		}
		if root == "" {
			root = first
		} else if root != first {
			return ""
		}
	}
	return root
}
