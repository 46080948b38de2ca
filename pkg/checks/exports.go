package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/nodehealth/pkg/filestore"
)

// exportTarget is one string leaf of an exports map.
type exportTarget struct {
	Subpath   string // "." or "./sub"
	Condition string // innermost condition key; "" for a bare string
	Target    string // "./dist/index.js"
	Path      string // display path, e.g. pkg.exports["."].import
}

// exportsVisitor receives the parts of an exports map during a walk.
type exportsVisitor struct {
	target     func(exportTarget)
	conditions func(path string, keys []string) // every condition object, keys in order
	mixed      func(path string)                // objects mixing subpath and condition keys
}

func walkExports(v gjson.Result, visit exportsVisitor) {
	walkExportValue(v, ".", "", "pkg.exports", visit, true)
}

func walkExportValue(v gjson.Result, subpath, cond, display string, visit exportsVisitor, top bool) {
	switch {
	case v.Type == gjson.String:
		if visit.target != nil {
			visit.target(exportTarget{Subpath: subpath, Condition: cond, Target: v.Str, Path: display})
		}
	case v.IsArray():
		for i, el := range v.Array() {
			walkExportValue(el, subpath, cond, fmt.Sprintf("%s[%d]", display, i), visit, false)
		}
	case v.IsObject():
		var keys []string
		subpaths, conditions := 0, 0
		v.ForEach(func(k, _ gjson.Result) bool {
			keys = append(keys, k.Str)
			if strings.HasPrefix(k.Str, ".") {
				subpaths++
			} else {
				conditions++
			}
			return true
		})
		if subpaths > 0 && conditions > 0 {
			if visit.mixed != nil {
				visit.mixed(display)
			}
			return
		}
		if subpaths > 0 && top {
			v.ForEach(func(k, val gjson.Result) bool {
				walkExportValue(val, k.Str, "", fmt.Sprintf("%s[%q]", display, k.Str), visit, false)
				return true
			})
			return
		}
		if visit.conditions != nil {
			visit.conditions(display, keys)
		}
		v.ForEach(func(k, val gjson.Result) bool {
			walkExportValue(val, subpath, k.Str, fmt.Sprintf("%s.%s", display, k.Str), visit, false)
			return true
		})
	}
}

// fileExists checks an exports or main target. Targets containing
// wildcards are reported as present.
func fileExists(ctx context.Context, store filestore.Store, target string) bool {
	if strings.Contains(target, "*") {
		return true
	}
	return store.Exists(ctx, target)
}

// resolveMain applies CommonJS extension and index resolution to a main
// field value and returns the first existing candidate.
func resolveMain(ctx context.Context, store filestore.Store, main string) (string, bool) {
	base := strings.TrimSuffix(strings.TrimPrefix(main, "./"), "/")
	for _, cand := range []string{base, base + ".js", base + ".json", base + "/index.js"} {
		if cand != "" && store.Exists(ctx, cand) {
			return cand, true
		}
	}
	return "", false
}
