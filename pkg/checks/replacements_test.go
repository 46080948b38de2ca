package checks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

func TestBuiltinManifest(t *testing.T) {
	list := Builtin()
	if len(list) == 0 {
		t.Fatal("builtin manifest is empty")
	}
	for _, r := range list {
		if r.ModuleName == "" {
			t.Errorf("entry without module name: %+v", r)
		}
		switch r.Type {
		case ReplacementNone, ReplacementSimple, ReplacementNative, ReplacementDocumented:
		default:
			t.Errorf("%s: unknown type %q", r.ModuleName, r.Type)
		}
	}
}

func TestReplacementsMessages(t *testing.T) {
	custom := []Replacement{
		{Type: ReplacementSimple, ModuleName: "left-pad", Replacement: "Use String.prototype.padStart"},
		{Type: ReplacementNone, ModuleName: "moment"},
	}
	files := map[string]string{
		"package.json": `{"name":"app","dependencies":{
			"left-pad":"*","object-assign":"*","lodash":"*","is-number":"*","moment":"*","react":"*"},
			"devDependencies":{"chalk":"*"}}`,
	}
	got := messages(t, NewReplacements(custom), files)

	want := []Message{
		{Severity: SeverityWarning, Message: `Module "left-pad" can be replaced. Use String.prototype.padStart.`},
		{Severity: SeverityWarning, Message: `Module "object-assign" can be replaced with native functionality. Use "Object.assign" instead. Required Node >= 4.0.0. You can read more at https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Global_Objects/Object/assign.`},
		{Severity: SeverityWarning, Message: `Module "lodash" can be replaced with a more performant alternative. See the list of available alternatives at https://github.com/es-tooling/eslint-plugin-depend/blob/main/docs/rules/lodash-underscore.md.`},
		{Severity: SeverityWarning, Message: `Module "is-number" can be removed, and native functionality used instead`},
		{Severity: SeverityWarning, Message: `Module "moment" can be removed, and native functionality used instead`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestReplacementsEngines(t *testing.T) {
	tests := []struct {
		engines string
		want    bool
	}{
		{">=18", true},
		{">=16", true},
		{"^18.0.0", true},
		{"16.x", false},
		{"<18", false},
		{"not a range", true},
	}
	for _, tt := range tests {
		t.Run(tt.engines, func(t *testing.T) {
			files := map[string]string{
				"package.json": `{"name":"app","engines":{"node":"` + tt.engines + `"},"dependencies":{"node-fetch":"*"}}`,
			}
			got := messages(t, NewReplacements(nil), files)
			if (len(got) == 1) != tt.want {
				t.Errorf("engines %q: messages = %+v, want advisory %v", tt.engines, got, tt.want)
			}
			if len(got) == 1 {
				want := `Module "node-fetch" can be replaced with native functionality. Use "fetch" instead. You can read more at https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Global_Objects/fetch.`
				if got[0].Message != want {
					t.Errorf("message = %q", got[0].Message)
				}
			}
		})
	}
}

func TestNodeEngineCompatible(t *testing.T) {
	tests := []struct {
		required, engines string
		want              bool
	}{
		{"12.0.0", ">=14", true},
		{"12.0.0", ">=12", true},
		{"12.0.0", ">=10", true},
		{"12.0.0", "10.x", false},
		{"12.0.0", "<12", false},
		{"12.0.0", ">11.5.0 <11.9.0", false},
		{">=12", "^14.0.0 || ^16.0.0", true},
		{"garbage!", ">=10", true},
	}
	for _, tt := range tests {
		if got := nodeEngineCompatible(tt.required, tt.engines); got != tt.want {
			t.Errorf("nodeEngineCompatible(%q, %q) = %v, want %v", tt.required, tt.engines, got, tt.want)
		}
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte(`{"moduleReplacements":[{"type":"none","moduleName":"x"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadManifest(good)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Replacement{{Type: ReplacementNone, ModuleName: "x"}}, got); diff != "" {
		t.Errorf("LoadManifest mismatch (-want +got):\n%s", diff)
	}
	if _, err := LoadManifest(bad); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad manifest error = %v", err)
	}
	badName := filepath.Join(dir, "bad-name.json")
	if err := os.WriteFile(badName, []byte(`{"moduleReplacements":[{"type":"none","moduleName":"../Evil"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadManifest(badName); !errors.Is(err, errors.ErrCodeInvalidManifest) {
		t.Errorf("invalid module name error = %v", err)
	}
	if _, err := LoadManifest(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing manifest error = %v", err)
	}
}
