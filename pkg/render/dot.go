package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/deps"
)

// Fill colors for duplicate installs.
const (
	ExactColor    = "#bfdbfe"
	ConflictColor = "#fde68a"
)

// Options configures diagram generation.
type Options struct {
	// Detailed adds the breadcrumb path and depth to node labels.
	Detailed bool
}

// ToDOT converts a dependency report to Graphviz DOT source.
//
// Node IDs are descriptor locations, so each physical install is one box
// even when several share a name.
func ToDOT(r checks.DependencyReport, opts Options) string {
	fill := make(map[string]string)
	for _, d := range r.Duplicates {
		color := ExactColor
		if d.Severity == deps.SeverityConflict {
			color = ConflictColor
		}
		for _, n := range d.Versions {
			fill[n.PackagePath] = color
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range r.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.PackagePath, strings.Join(fmtAttrs(n, fill[n.PackagePath], opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range r.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n deps.Node, detailed bool) string {
	label := n.Name + "\n" + n.Version
	if detailed {
		label += fmt.Sprintf("\n%s\ndepth: %d", n.Path, n.Depth)
	}
	return label
}

func fmtAttrs(n deps.Node, fill string, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(n, detailed))}
	if n.IsRoot() {
		attrs = append(attrs, "penwidth=2")
	}
	if fill != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", fill))
	}
	return attrs
}
