package manifest

import (
	"context"
	"fmt"
	"io/fs"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

func TestParse(t *testing.T) {
	content := `{
  "name": "my-package",
  "version": "1.2.3",
  "type": "module",
  "main": "./index.cjs",
  "typings": "./index.d.ts",
  "engines": {"node": ">=18"},
  "dependencies": {
    "zod": "^3.0.0",
    "express": "^4.18.0",
    "lodash": "^4.17.21"
  },
  "devDependencies": {
    "vitest": "^1.0.0"
  }
}`

	d, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !d.HasName() || d.Name != "my-package" {
		t.Errorf("Name = %q (named=%v), want my-package", d.Name, d.HasName())
	}
	if d.Version != "1.2.3" {
		t.Errorf("Version = %q, want 1.2.3", d.Version)
	}
	if d.Type != "module" || d.Main != "./index.cjs" {
		t.Errorf("Type/Main = %q/%q", d.Type, d.Main)
	}
	if d.Types != "./index.d.ts" {
		t.Errorf("Types = %q, want typings fallback", d.Types)
	}
	if d.Engines.Node != ">=18" {
		t.Errorf("Engines.Node = %q, want >=18", d.Engines.Node)
	}

	wantDeps := []Dependency{
		{Name: "zod", Range: "^3.0.0"},
		{Name: "express", Range: "^4.18.0"},
		{Name: "lodash", Range: "^4.17.21"},
	}
	if diff := cmp.Diff(wantDeps, d.Dependencies); diff != "" {
		t.Errorf("Dependencies mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Dependency{{Name: "vitest", Range: "^1.0.0"}}, d.DevDependencies); diff != "" {
		t.Errorf("DevDependencies mismatch (-want +got):\n%s", diff)
	}
	if d.HasExports() {
		t.Error("HasExports() = true, want false")
	}
}

func TestParseDefaults(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantName  string
		wantNamed bool
	}{
		{"missing name", `{"version": "1.0.0"}`, "", false},
		{"empty name", `{"name": ""}`, "", false},
		{"numeric name", `{"name": 42}`, "", false},
		{"named", `{"name": "a"}`, "a", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Parse([]byte(tt.content))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if d.Name != tt.wantName || d.HasName() != tt.wantNamed {
				t.Errorf("Name = %q named=%v, want %q named=%v", d.Name, d.HasName(), tt.wantName, tt.wantNamed)
			}
		})
	}

	d, _ := Parse([]byte(`{"name": "a"}`))
	if d.Version != UnknownVersion {
		t.Errorf("Version = %q, want %q", d.Version, UnknownVersion)
	}
}

func TestParseJSONC(t *testing.T) {
	content := `{
  // editor comment
  "name": "commented",
  "dependencies": {
    "a": "1.0.0", /* inline */
    "b": "2.0.0",
  },
}`
	d, err := Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if d.Name != "commented" || len(d.Dependencies) != 2 {
		t.Errorf("got name %q with %d deps", d.Name, len(d.Dependencies))
	}

	if _, err := ParseStrict([]byte(content)); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("ParseStrict error = %v, want INVALID_MANIFEST", err)
	}
}

func TestParseRepeatedKeys(t *testing.T) {
	d, err := Parse([]byte(`{"name":"x","dependencies":{"a":"1","b":"2","a":"3"}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []Dependency{{Name: "a", Range: "3"}, {Name: "b", Range: "2"}}
	if diff := cmp.Diff(want, d.Dependencies); diff != "" {
		t.Errorf("Dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, content := range []string{``, `not json`, `[1, 2]`, `"string"`, `{"name": `} {
		_, err := Parse([]byte(content))
		if !errors.Is(err, errors.ErrCodeInvalidManifest) {
			t.Errorf("Parse(%q) error = %v, want INVALID_MANIFEST", content, err)
		}
	}
}

func TestParseExportsOrder(t *testing.T) {
	d, err := Parse([]byte(`{"name":"x","exports":{".":{"types":"./a.d.ts","import":"./a.mjs","default":"./a.js"}}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !d.HasExports() {
		t.Fatal("HasExports() = false")
	}
	var keys []string
	d.Exports().Get(`\.`).ForEach(func(k, _ gjson.Result) bool {
		keys = append(keys, k.String())
		return true
	})
	if diff := cmp.Diff([]string{"types", "import", "default"}, keys); diff != "" {
		t.Errorf("condition order mismatch (-want +got):\n%s", diff)
	}
}

type mapReader map[string]string

func (m mapReader) ReadFile(_ context.Context, loc string) ([]byte, error) {
	s, ok := m[loc]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", loc, fs.ErrNotExist)
	}
	return []byte(s), nil
}

func TestLoad(t *testing.T) {
	r := mapReader{
		"package.json":        `{"name":"root"}`,
		"broken/package.json": `{`,
	}
	ctx := context.Background()

	d, err := Load(ctx, r, "package.json")
	if err != nil || d.Name != "root" {
		t.Fatalf("Load = %v, %v", d, err)
	}

	if _, err := Load(ctx, r, "missing/package.json"); !errors.Is(err, errors.ErrCodeManifestNotFound) {
		t.Errorf("missing: error = %v, want MANIFEST_NOT_FOUND", err)
	}
	if _, err := Load(ctx, r, "broken/package.json"); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("broken: error = %v, want INVALID_MANIFEST", err)
	}
}

func TestLoadRoot(t *testing.T) {
	r := mapReader{
		"package.json":       `{"name":"root"}`,
		"jsonc/package.json": `{"name":"root",}`,
	}
	ctx := context.Background()

	if d, err := LoadRoot(ctx, r, "package.json"); err != nil || d.Name != "root" {
		t.Fatalf("LoadRoot = %v, %v", d, err)
	}
	if _, err := LoadRoot(ctx, r, "jsonc/package.json"); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("trailing comma: error = %v, want INVALID_MANIFEST", err)
	}
	if _, err := Load(ctx, r, "jsonc/package.json"); err != nil {
		t.Errorf("Load should tolerate trailing commas: %v", err)
	}
}
