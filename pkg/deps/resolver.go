package deps

import (
	"context"

	"github.com/matzehuels/nodehealth/pkg/errors"
	"github.com/matzehuels/nodehealth/pkg/manifest"
	"github.com/matzehuels/nodehealth/pkg/modtype"
)

// Store is the read side of a file store the resolver needs.
type Store interface {
	manifest.Reader
	// Exists reports whether a file exists at loc.
	Exists(ctx context.Context, loc string) bool
}

// Resolver builds the installed dependency graph of a package.
// A Resolver holds no per-run state and may be reused.
type Resolver struct {
	store Store
	opts  Options
}

// NewResolver creates a Resolver reading from store.
func NewResolver(store Store, opts Options) *Resolver {
	return &Resolver{store: store, opts: opts.WithDefaults()}
}

// Resolve walks the dependency tree from the descriptor at root.
//
// It fails only when the root descriptor is missing
// (ErrCodeManifestNotFound) or malformed (ErrCodeInvalidManifest), or when
// ctx is cancelled; in every failure case no graph is returned. A root
// without a name yields an empty graph.
func (r *Resolver) Resolve(ctx context.Context, root string) (*Graph, error) {
	if root == "" {
		root = manifest.FileName
	}
	desc, err := manifest.LoadRoot(ctx, r.store, root)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g := &Graph{Root: desc}
	if !desc.HasName() {
		return g, nil
	}

	t := &traversal{
		ctx:      ctx,
		store:    r.store,
		opts:     r.opts,
		graph:    g,
		installs: make(installs),
	}
	if err := t.visit(root, desc, "", 0, RootLabel); err != nil {
		return nil, err
	}
	return g, nil
}

// installs is the run-wide set of recorded locations. A location in it has
// a node and has been (or is being) descended into.
type installs map[string]struct{}

func (s installs) has(loc string) bool {
	_, ok := s[loc]
	return ok
}

func (s installs) record(loc string) { s[loc] = struct{}{} }

// descended guards one package's dependency list against resolving to the
// same location twice.
type descended map[string]struct{}

// add reports whether loc was newly added.
func (s descended) add(loc string) bool {
	if _, ok := s[loc]; ok {
		return false
	}
	s[loc] = struct{}{}
	return true
}

// outcome of loading a non-root descriptor.
type outcome int

const (
	loaded outcome = iota
	skip           // unreadable, malformed or unnamed: prune the branch
)

// traversal is the accumulator of one Resolve call.
type traversal struct {
	ctx      context.Context
	store    Store
	opts     Options
	graph    *Graph
	installs installs
}

func (t *traversal) load(loc string) (*manifest.Descriptor, outcome) {
	d, err := manifest.Load(t.ctx, t.store, loc)
	if err != nil || !d.HasName() {
		return nil, skip
	}
	return d, loaded
}

func (t *traversal) exists(loc string) bool {
	return t.store.Exists(t.ctx, loc)
}

func (t *traversal) visit(loc string, d *manifest.Descriptor, parent string, depth int, trail string) error {
	if err := t.ctx.Err(); err != nil {
		return err
	}

	t.installs.record(loc)
	t.graph.Nodes = append(t.graph.Nodes, Node{
		Name:        d.Name,
		Version:     d.Version,
		Path:        trail,
		Parent:      parent,
		Depth:       depth,
		PackagePath: loc,
	})
	if depth > 0 {
		t.graph.classify(modtype.Classify(d))
	}
	if depth >= t.opts.MaxDepth {
		return nil
	}

	seen := make(descended)
	for _, name := range t.declared(d, depth) {
		if errors.ValidatePackageName(name) != nil {
			continue
		}
		target, ok := Lookup(loc, name, t.exists)
		if !ok || !seen.add(target) {
			continue
		}
		if t.installs.has(target) {
			t.edge(loc, target)
			continue
		}
		child, out := t.load(target)
		if out == skip {
			continue
		}
		t.edge(loc, target)
		if err := t.visit(target, child, d.Name, depth+1, trail+PathSeparator+name); err != nil {
			return err
		}
	}
	return nil
}

func (t *traversal) edge(from, to string) {
	t.graph.Edges = append(t.graph.Edges, Edge{From: from, To: to})
}

// declared returns the dependency names of d to resolve: dependencies in
// document order, then devDependencies not already listed, when the dev
// scope admits them at this depth.
func (t *traversal) declared(d *manifest.Descriptor, depth int) []string {
	names := make([]string, 0, len(d.Dependencies)+len(d.DevDependencies))
	listed := make(map[string]bool, cap(names))
	add := func(list []manifest.Dependency) {
		for _, dep := range list {
			if !listed[dep.Name] {
				listed[dep.Name] = true
				names = append(names, dep.Name)
			}
		}
	}
	add(d.Dependencies)
	if t.includeDev(depth) {
		add(d.DevDependencies)
	}
	return names
}

func (t *traversal) includeDev(depth int) bool {
	switch t.opts.DevDependencies {
	case DevAll:
		return true
	case DevNone:
		return false
	default:
		return depth == 0
	}
}
