package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"sync"
)

// Memory is a Store over an in-memory file map. It is immutable after
// construction.
type Memory struct {
	root   string
	files  map[string][]byte
	digest string

	listOnce sync.Once
	list     []string
}

// NewMemory creates a store from files keyed by location. Keys that fail
// [Clean] are dropped.
func NewMemory(root string, files map[string][]byte) *Memory {
	m := &Memory{root: root, files: make(map[string][]byte, len(files))}
	for loc, data := range files {
		clean, err := Clean(loc)
		if err != nil {
			continue
		}
		m.files[clean] = data
	}
	return m
}

// Root returns the archive's top-level directory name.
func (m *Memory) Root(context.Context) (string, error) { return m.root, nil }

// Digest returns the hex SHA-256 of the source archive, or "" when the store
// was not built from one.
func (m *Memory) Digest() string { return m.digest }

func (m *Memory) ReadFile(_ context.Context, loc string) ([]byte, error) {
	clean, err := Clean(loc)
	if err != nil {
		return nil, err
	}
	data, ok := m.files[clean]
	if !ok {
		return nil, notExist("read", loc)
	}
	return data, nil
}

func (m *Memory) Exists(_ context.Context, loc string) bool {
	clean, err := Clean(loc)
	if err != nil {
		return false
	}
	_, ok := m.files[clean]
	return ok
}

func (m *Memory) PackageFiles(context.Context) ([]string, error) {
	m.listOnce.Do(func() {
		for loc := range m.files {
			if IsPackageFile(loc) {
				m.list = append(m.list, loc)
			}
		}
		slices.Sort(m.list)
	})
	return slices.Clone(m.list), nil
}

// InstallSize is the total size of all files in the archive.
func (m *Memory) InstallSize(context.Context) (int64, error) {
	var total int64
	for _, data := range m.files {
		total += int64(len(data))
	}
	return total, nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

var (
	_ Store    = (*Memory)(nil)
	_ Digester = (*Memory)(nil)
)
