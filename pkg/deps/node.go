package deps

import (
	"github.com/matzehuels/nodehealth/pkg/manifest"
	"github.com/matzehuels/nodehealth/pkg/modtype"
)

const (
	// RootLabel starts every breadcrumb.
	RootLabel = "root"
	// PathSeparator joins breadcrumb segments.
	PathSeparator = " > "
)

// Node is one resolved, physically located install.
type Node struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Path        string `json:"path"`             // breadcrumb, e.g. "root > a > b"
	Parent      string `json:"parent,omitempty"` // name of the consuming package; empty for the root
	Depth       int    `json:"depth"`
	PackagePath string `json:"packagePath"` // descriptor location; unique per graph
}

// IsRoot reports whether n is the package under analysis.
func (n Node) IsRoot() bool { return n.Depth == 0 }

// Edge is a resolved dependency declaration between two recorded locations.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the result of one resolver run.
type Graph struct {
	Root  *manifest.Descriptor `json:"-"`
	Nodes []Node               `json:"nodes"`
	Edges []Edge               `json:"edges,omitempty"`

	// Module-system counters over non-root nodes. Dual packages count
	// towards both.
	CJS int `json:"cjs"`
	ESM int `json:"esm"`
}

// Dependencies returns the non-root nodes in discovery order.
func (g *Graph) Dependencies() []Node {
	var out []Node
	for _, n := range g.Nodes {
		if !n.IsRoot() {
			out = append(out, n)
		}
	}
	return out
}

// Node returns the node recorded at loc.
func (g *Graph) Node(loc string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.PackagePath == loc {
			return n, true
		}
	}
	return Node{}, false
}

func (g *Graph) classify(t modtype.Type) {
	switch t {
	case modtype.CJS:
		g.CJS++
	case modtype.ESM:
		g.ESM++
	case modtype.Dual:
		g.CJS++
		g.ESM++
	}
}
