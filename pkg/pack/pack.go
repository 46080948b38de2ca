// Package pack produces a publishable tarball from a project directory using
// the project's own package manager.
package pack

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

// Manager is a package manager able to pack a project.
type Manager string

const (
	Auto Manager = "auto"
	None Manager = "none"
	NPM  Manager = "npm"
	Yarn Manager = "yarn"
	PNPM Manager = "pnpm"
	Bun  Manager = "bun"
)

// lockfiles maps lockfile names to their manager, in detection order.
var lockfiles = []struct {
	file    string
	manager Manager
}{
	{"package-lock.json", NPM},
	{"npm-shrinkwrap.json", NPM},
	{"yarn.lock", Yarn},
	{"pnpm-lock.yaml", PNPM},
	{"bun.lockb", Bun},
	{"bun.lock", Bun},
}

// ParseManager validates a --pack value.
func ParseManager(s string) (Manager, error) {
	switch m := Manager(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Auto, nil
	case Auto, None, NPM, Yarn, PNPM, Bun:
		return m, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "invalid pack option %q (want auto, npm, yarn, pnpm, bun or none)", s)
}

// Detect picks the package manager from the lockfile in root, defaulting
// to npm.
func Detect(root string) Manager {
	for _, l := range lockfiles {
		if _, err := os.Stat(filepath.Join(root, l.file)); err == nil {
			return l.manager
		}
	}
	return NPM
}

// args returns the pack command line writing into dest with lifecycle
// scripts disabled.
func (m Manager) args(dest string) []string {
	switch m {
	case Yarn:
		return []string{"yarn", "pack", "--filename", filepath.Join(dest, "package.tgz")}
	case PNPM:
		return []string{"pnpm", "pack", "--pack-destination", dest}
	case Bun:
		return []string{"bun", "pm", "pack", "--destination", dest, "--ignore-scripts"}
	default:
		return []string{"npm", "pack", "--pack-destination", dest, "--ignore-scripts", "--silent"}
	}
}

// runCommand is injectable in tests.
var runCommand = func(ctx context.Context, dir string, env []string, args ...string) error {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Pack runs manager's pack command in root and returns the tarball bytes.
// Auto detects the manager first. The temporary output directory is removed
// before Pack returns.
func Pack(ctx context.Context, root string, manager Manager) ([]byte, error) {
	switch manager {
	case None:
		return nil, errors.New(errors.ErrCodeInvalidInput, "packing is disabled")
	case "", Auto:
		manager = Detect(root)
	}

	dest, err := os.MkdirTemp("", "nodehealth-pack-")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dest)

	// Yarn 1 has no --ignore-scripts for pack; the environment switch covers
	// both Yarn generations.
	env := []string{"npm_config_ignore_scripts=true", "YARN_ENABLE_SCRIPTS=false"}
	if err := runCommand(ctx, root, env, manager.args(dest)...); err != nil {
		return nil, errors.Wrap(errors.ErrCodePackFailed, err, "%s pack failed", manager)
	}

	matches, err := filepath.Glob(filepath.Join(dest, "*.tgz"))
	if err != nil || len(matches) == 0 {
		return nil, errors.New(errors.ErrCodePackFailed, "%s pack produced no tarball", manager)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePackFailed, err, "read tarball")
	}
	return data, nil
}
