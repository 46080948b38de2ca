package filestore

import (
	"archive/tar"
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func makeTarball(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range entries {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestClean(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"package.json", "package.json", false},
		{"/package.json", "package.json", false},
		{"./node_modules/a/package.json", "node_modules/a/package.json", false},
		{"node_modules//a/package.json", "node_modules/a/package.json", false},
		{"", "", true},
		{"../package.json", "", true},
		{"node_modules/../../x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Clean(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Clean(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLocal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"package.json":                               `{"name":"root"}`,
		"index.js":                                   "module.exports = 1",
		"node_modules/a/package.json":                `{"name":"a"}`,
		"node_modules/a/index.js":                    "12345",
		"node_modules/@s/b/package.json":             `{"name":"@s/b"}`,
		"node_modules/a/node_modules/c/package.json": `{"name":"c"}`,
	})

	s, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}

	data, err := s.ReadFile(ctx, "node_modules/a/package.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `{"name":"a"}` {
		t.Errorf("ReadFile = %q", data)
	}

	if _, err := s.ReadFile(ctx, "node_modules/missing/package.json"); !os.IsNotExist(err) {
		t.Errorf("ReadFile(missing) error = %v, want not-exist", err)
	}
	if !s.Exists(ctx, "index.js") {
		t.Error("Exists(index.js) = false")
	}
	if s.Exists(ctx, "node_modules/a") {
		t.Error("Exists on a directory should be false")
	}

	files, err := s.PackageFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"node_modules/@s/b/package.json",
		"node_modules/a/node_modules/c/package.json",
		"node_modules/a/package.json",
		"package.json",
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("PackageFiles mismatch (-want +got):\n%s", diff)
	}

	size, err := s.InstallSize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	wantSize := int64(len(`{"name":"a"}`) + len("12345") + len(`{"name":"@s/b"}`) + len(`{"name":"c"}`))
	if size != wantSize {
		t.Errorf("InstallSize = %d, want %d", size, wantSize)
	}
}

func TestLocalSymlinkCycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"package.json":                `{"name":"root"}`,
		"node_modules/a/package.json": `{"name":"a"}`,
	})
	loop := filepath.Join(dir, "node_modules", "a", "node_modules")
	if err := os.MkdirAll(loop, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "node_modules"), filepath.Join(loop, "up")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	files, err := s.PackageFiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"node_modules/a/package.json", "package.json"}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("PackageFiles mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalNoNodeModules(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"package.json": `{}`})
	s, err := NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	size, err := s.InstallSize(context.Background())
	if err != nil || size != 0 {
		t.Errorf("InstallSize = %d, %v; want 0, nil", size, err)
	}
}

func TestNewLocalErrors(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"file.txt": "x"})

	if _, err := NewLocal(filepath.Join(dir, "missing")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing dir: got %v", err)
	}
	if _, err := NewLocal(filepath.Join(dir, "file.txt")); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("file root: got %v", err)
	}
}

func TestFromTarball(t *testing.T) {
	ctx := context.Background()
	data := makeTarball(t, map[string]string{
		"package/package.json": `{"name":"pkg"}`,
		"package/index.js":     "export {}",
		"package/lib/a.d.ts":   "export {}",
	})

	m, err := FromTarball(data)
	if err != nil {
		t.Fatalf("FromTarball: %v", err)
	}
	root, _ := m.Root(ctx)
	if root != "package" {
		t.Errorf("Root = %q, want package", root)
	}
	if !m.Exists(ctx, "lib/a.d.ts") {
		t.Error("lib/a.d.ts should exist")
	}
	got, err := m.ReadFile(ctx, "package.json")
	if err != nil || string(got) != `{"name":"pkg"}` {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
	if _, err := m.ReadFile(ctx, "nope.js"); err == nil {
		t.Error("expected error for missing file")
	}
	size, _ := m.InstallSize(ctx)
	if size != int64(len(`{"name":"pkg"}`)+2*len("export {}")) {
		t.Errorf("InstallSize = %d", size)
	}
	if len(m.Digest()) != 64 {
		t.Errorf("Digest = %q, want 64 hex chars", m.Digest())
	}

	again, err := FromTarball(data)
	if err != nil {
		t.Fatal(err)
	}
	if again.Digest() != m.Digest() {
		t.Error("digest should be stable for identical archives")
	}
}

func TestFromTarballMissingIsNotExist(t *testing.T) {
	m, err := FromTarball(makeTarball(t, map[string]string{"package/package.json": "{}"}))
	if err != nil {
		t.Fatal(err)
	}
	_, err = m.ReadFile(context.Background(), "node_modules/x/package.json")
	var pe *fs.PathError
	if !os.IsNotExist(err) || !asPathError(err, &pe) {
		t.Errorf("error = %v, want *fs.PathError wrapping fs.ErrNotExist", err)
	}
}

func asPathError(err error, target **fs.PathError) bool {
	pe, ok := err.(*fs.PathError)
	if ok {
		*target = pe
	}
	return ok
}

func TestFromTarballErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"not gzip", []byte("plain text")},
		{"traversal", makeTarball(t, map[string]string{"../evil.js": "x"})},
		{"absolute", makeTarball(t, map[string]string{"/etc/passwd": "x"})},
		{"empty", makeTarball(t, map[string]string{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTarball(tt.data)
			if !errors.Is(err, errors.ErrCodeInvalidTarball) {
				t.Errorf("FromTarball error = %v, want INVALID_TARBALL", err)
			}
		})
	}
}

func TestFromTarballWithoutCommonRoot(t *testing.T) {
	m, err := FromTarball(makeTarball(t, map[string]string{
		"package.json": "{}",
		"lib/index.js": "x",
	}))
	if err != nil {
		t.Fatal(err)
	}
	root, _ := m.Root(context.Background())
	if root != "" {
		t.Errorf("Root = %q, want empty", root)
	}
	if !m.Exists(context.Background(), "lib/index.js") {
		t.Error("lib/index.js should exist")
	}
}

type countingStore struct {
	Store
	reads int
}

func (c *countingStore) ReadFile(ctx context.Context, loc string) ([]byte, error) {
	c.reads++
	return c.Store.ReadFile(ctx, loc)
}

func TestCached(t *testing.T) {
	ctx := context.Background()
	inner := &countingStore{Store: NewMemory("pkg", map[string][]byte{"package.json": []byte("{}")})}
	c, err := NewCached(inner, 0)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := c.ReadFile(ctx, "./package.json"); err != nil {
			t.Fatal(err)
		}
	}
	if inner.reads != 1 {
		t.Errorf("inner reads = %d, want 1", inner.reads)
	}

	for i := 0; i < 2; i++ {
		if _, err := c.ReadFile(ctx, "missing.json"); err == nil {
			t.Fatal("expected error")
		}
	}
	if inner.reads != 3 {
		t.Errorf("failed reads should not be cached: inner reads = %d, want 3", inner.reads)
	}
	if c.Digest() != "" {
		t.Errorf("Digest = %q, want empty", c.Digest())
	}
}
