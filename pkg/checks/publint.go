package checks

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/filestore"
	"github.com/matzehuels/nodehealth/pkg/manifest"
)

// Publint lints the packaging metadata of the root descriptor: entry
// points that do not exist and exports maps that resolve differently than
// intended.
type Publint struct{}

// NewPublint creates the publint checker.
func NewPublint() *Publint { return &Publint{} }

func (*Publint) Name() string { return "publint" }

func (*Publint) Check(ctx context.Context, store filestore.Store) (*Result, error) {
	d, err := manifest.Load(ctx, store, manifest.FileName)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	add := func(sev Severity, format string, args ...any) {
		res.Messages = append(res.Messages, Message{Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	if d.Main != "" {
		if _, ok := resolveMain(ctx, store, d.Main); !ok {
			add(SeverityError, "pkg.main is %q but the file does not exist.", d.Main)
		}
	}
	if d.Module != "" && !fileExists(ctx, store, d.Module) {
		add(SeverityWarning, "pkg.module is %q but the file does not exist.", d.Module)
	}

	if !d.HasExports() {
		if d.Main != "" || d.Module != "" {
			add(SeveritySuggestion, "The package does not specify the %q field. Consider adding it to define the package's public entry points.", "exports")
		}
		return res, nil
	}

	walkExports(d.Exports(), exportsVisitor{
		target: func(t exportTarget) {
			if !strings.HasPrefix(t.Target, "./") {
				add(SeverityError, "%s is %q but exports targets must start with \"./\".", t.Path, t.Target)
				return
			}
			if !fileExists(ctx, store, t.Target) {
				add(SeverityError, "%s is %q but the file does not exist.", t.Path, t.Target)
			}
		},
		conditions: func(path string, keys []string) {
			if i := slices.Index(keys, "types"); i > 0 {
				add(SeverityWarning, "%s.types should be the first in the object as conditions are order-sensitive so it can be resolved by TypeScript.", path)
			}
			if i := slices.Index(keys, "default"); i >= 0 && i != len(keys)-1 {
				add(SeverityError, "%s.default should be the last in the object so it doesn't take precedence over the keys following it.", path)
			}
		},
		mixed: func(path string) {
			add(SeverityError, "%s mixes subpath keys (starting with \".\") and condition keys, so it cannot be resolved.", path)
		},
	})
	return res, nil
}
