package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/filestore"
	"github.com/matzehuels/nodehealth/pkg/manifest"
)

// Types checks that a package ships type declarations and that the
// declarations it points at exist.
type Types struct{}

// NewTypes creates the types checker.
func NewTypes() *Types { return &Types{} }

func (*Types) Name() string { return "types" }

func (*Types) Check(ctx context.Context, store filestore.Store) (*Result, error) {
	d, err := manifest.Load(ctx, store, manifest.FileName)
	if err != nil {
		return nil, err
	}

	var declared []exportTarget
	if d.Types != "" {
		declared = append(declared, exportTarget{Subpath: ".", Target: d.Types})
	}
	if d.HasExports() {
		walkExports(d.Exports(), exportsVisitor{
			target: func(t exportTarget) {
				if t.Condition == "types" || isDeclarationFile(t.Target) {
					declared = append(declared, t)
				}
			},
		})
	}

	res := &Result{}
	if len(declared) == 0 {
		if !hasImplicitTypes(ctx, store, d) {
			res.Messages = append(res.Messages, Message{
				Severity: SeveritySuggestion,
				Message:  "No type definitions found.",
			})
		}
		return res, nil
	}

	for _, t := range declared {
		if !fileExists(ctx, store, t.Target) {
			res.Messages = append(res.Messages, Message{
				Severity: SeverityError,
				Message:  fmt.Sprintf("%q subpath: types file %q does not exist", t.Subpath, t.Target),
			})
		}
	}
	return res, nil
}

func isDeclarationFile(p string) bool {
	for _, ext := range []string{".d.ts", ".d.mts", ".d.cts"} {
		if strings.HasSuffix(p, ext) {
			return true
		}
	}
	return false
}

// hasImplicitTypes reports whether TypeScript would find declarations
// without any field pointing at them: index.d.ts at the root, or a .d.ts
// next to the main entry.
func hasImplicitTypes(ctx context.Context, store filestore.Store, d *manifest.Descriptor) bool {
	if store.Exists(ctx, "index.d.ts") {
		return true
	}
	if d.Main == "" {
		return false
	}
	main, ok := resolveMain(ctx, store, d.Main)
	if !ok {
		return false
	}
	for _, ext := range []string{".js", ".cjs", ".mjs"} {
		if strings.HasSuffix(main, ext) {
			return store.Exists(ctx, strings.TrimSuffix(main, ext)+".d.ts")
		}
	}
	return false
}
