package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		files []string
		want  Manager
	}{
		{nil, NPM},
		{[]string{"package-lock.json"}, NPM},
		{[]string{"yarn.lock"}, Yarn},
		{[]string{"pnpm-lock.yaml"}, PNPM},
		{[]string{"bun.lockb"}, Bun},
		{[]string{"bun.lock"}, Bun},
		{[]string{"package-lock.json", "yarn.lock"}, NPM},
	}
	for _, tt := range tests {
		dir := t.TempDir()
		for _, f := range tt.files {
			if err := os.WriteFile(filepath.Join(dir, f), nil, 0o644); err != nil {
				t.Fatal(err)
			}
		}
		if got := Detect(dir); got != tt.want {
			t.Errorf("Detect(%v) = %s, want %s", tt.files, got, tt.want)
		}
	}
}

func TestParseManager(t *testing.T) {
	for in, want := range map[string]Manager{"": Auto, "NPM": NPM, " pnpm ": PNPM, "none": None} {
		got, err := ParseManager(in)
		if err != nil || got != want {
			t.Errorf("ParseManager(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseManager("cargo"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("ParseManager(cargo) error = %v", err)
	}
}

func stubRun(t *testing.T, fn func(ctx context.Context, dir string, env []string, args ...string) error) {
	t.Helper()
	orig := runCommand
	runCommand = fn
	t.Cleanup(func() { runCommand = orig })
}

func TestPack(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "pnpm-lock.yaml"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var gotArgs []string
	var dest string
	stubRun(t, func(_ context.Context, dir string, env []string, args ...string) error {
		if dir != root {
			t.Errorf("command ran in %s, want %s", dir, root)
		}
		gotArgs = args
		dest = args[len(args)-1]
		return os.WriteFile(filepath.Join(dest, "pkg-1.0.0.tgz"), []byte("tarball"), 0o644)
	})

	data, err := Pack(context.Background(), root, Auto)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if string(data) != "tarball" {
		t.Errorf("Pack data = %q", data)
	}
	if diff := cmp.Diff([]string{"pnpm", "pack", "--pack-destination", dest}, gotArgs); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("temporary directory should be removed")
	}
}

func TestPackFailures(t *testing.T) {
	root := t.TempDir()

	stubRun(t, func(context.Context, string, []string, ...string) error { return fmt.Errorf("exit status 1") })
	if _, err := Pack(context.Background(), root, NPM); !errors.Is(err, errors.ErrCodePackFailed) {
		t.Errorf("failed command: error = %v", err)
	}

	stubRun(t, func(context.Context, string, []string, ...string) error { return nil })
	if _, err := Pack(context.Background(), root, NPM); !errors.Is(err, errors.ErrCodePackFailed) {
		t.Errorf("no tarball: error = %v", err)
	}

	if _, err := Pack(context.Background(), root, None); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("pack none: error = %v", err)
	}
}

func TestManagerArgsDisableScripts(t *testing.T) {
	for _, m := range []Manager{NPM, Bun} {
		args := m.args("/tmp/out")
		found := false
		for _, a := range args {
			found = found || a == "--ignore-scripts"
		}
		if !found {
			t.Errorf("%s args %v should disable scripts", m, args)
		}
	}
}
