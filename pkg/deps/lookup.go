package deps

import (
	"path"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/manifest"
)

const nodeModules = "node_modules"

// Dir returns the directory of a descriptor location; "" is the root.
func Dir(loc string) string {
	dir := path.Dir(loc)
	if dir == "." {
		return ""
	}
	return dir
}

// Candidates lists, nearest first, the locations at which a dependency
// called name may be installed for the package whose descriptor is at from.
//
// Directories that are themselves named node_modules are skipped, so
// "node_modules/a/package.json" yields
// "node_modules/a/node_modules/<name>/package.json" then
// "node_modules/<name>/package.json".
func Candidates(from, name string) []string {
	var out []string
	dir := Dir(from)
	for {
		if path.Base(dir) != nodeModules {
			out = append(out, path.Join(dir, nodeModules, name, manifest.FileName))
		}
		if dir == "" {
			return out
		}
		dir = parent(dir)
	}
}

// Lookup returns the first candidate for which exists reports true.
func Lookup(from, name string, exists func(string) bool) (string, bool) {
	for _, c := range Candidates(from, name) {
		if exists(c) {
			return c, true
		}
	}
	return "", false
}

func parent(dir string) string {
	i := strings.LastIndex(dir, "/")
	if i < 0 {
		return ""
	}
	return dir[:i]
}
