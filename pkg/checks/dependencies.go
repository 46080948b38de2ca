package checks

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/deps"
	"github.com/matzehuels/nodehealth/pkg/filestore"
	"github.com/matzehuels/nodehealth/pkg/manifest"
)

// Dependencies resolves the installed dependency graph and reports
// duplicate installs. It is the only required checker: without a readable
// root descriptor there is no report.
type Dependencies struct {
	opts deps.Options
}

// NewDependencies creates the dependencies checker.
func NewDependencies(opts deps.Options) *Dependencies {
	return &Dependencies{opts: opts}
}

func (*Dependencies) Name() string   { return "dependencies" }
func (*Dependencies) Required() bool { return true }

func (c *Dependencies) Check(ctx context.Context, store filestore.Store) (*Result, error) {
	g, err := deps.NewResolver(store, c.opts).Resolve(ctx, manifest.FileName)
	if err != nil {
		return nil, err
	}
	dups := deps.DetectDuplicates(g.Nodes)

	size, err := store.InstallSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("install size: %w", err)
	}

	stats := &Stats{
		InstallSize: size,
		DependencyCount: DependencyCount{
			Production:  len(g.Root.Dependencies),
			Development: len(g.Root.DevDependencies),
			CJS:         g.CJS,
			ESM:         g.ESM,
			Duplicate:   len(dups),
		},
	}
	if g.Root.HasName() {
		stats.Name = g.Root.Name
		stats.Version = g.Root.Version
	}

	extraneous, err := countExtraneous(ctx, store, g)
	if err != nil {
		return nil, err
	}
	stats.ExtraStats = append(stats.ExtraStats, Stat{
		Name:  "extraneous",
		Label: "Extraneous installs",
		Value: extraneous,
	})

	res := &Result{
		Stats: stats,
		Dependencies: &DependencyReport{
			Nodes:      g.Nodes,
			Edges:      g.Edges,
			Duplicates: dups,
		},
	}
	for _, d := range dups {
		res.Messages = append(res.Messages, Message{
			Severity: SeverityWarning,
			Message:  FormatDuplicate(d),
		})
	}
	return res, nil
}

// FormatDuplicate renders a duplicate group as a multi-line message.
func FormatDuplicate(d deps.Duplicate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[duplicate dependency] %s has %d installed versions:", d.Name, len(d.Versions))
	for _, v := range d.Versions {
		fmt.Fprintf(&b, "\n %s via %s", v.Version, v.Path)
	}
	if len(d.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for _, s := range d.Suggestions {
			b.WriteString("\n  " + s)
		}
	}
	return b.String()
}

// countExtraneous counts installed packages that no resolved dependency
// reaches.
func countExtraneous(ctx context.Context, store filestore.Store, g *deps.Graph) (int, error) {
	files, err := store.PackageFiles(ctx)
	if err != nil {
		return 0, fmt.Errorf("list package files: %w", err)
	}
	reached := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		reached[node.PackagePath] = true
	}
	n := 0
	for _, loc := range files {
		if isInstallRoot(loc) && !reached[loc] {
			n++
		}
	}
	return n, nil
}

// isInstallRoot reports whether loc is node_modules/<name>/package.json or
// node_modules/@scope/<name>/package.json at any nesting level, as opposed
// to a descriptor nested inside a package's own files.
func isInstallRoot(loc string) bool {
	parent := path.Dir(deps.Dir(loc))
	if path.Base(parent) == "node_modules" {
		return true
	}
	return strings.HasPrefix(path.Base(parent), "@") && path.Base(path.Dir(parent)) == "node_modules"
}
