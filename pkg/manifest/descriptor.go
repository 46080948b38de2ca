// Package manifest parses package.json descriptors.
//
// Installed descriptors are parsed tolerantly, accepting the JSONC extensions
// editors and some tools leave behind (comments, trailing commas). The
// project's own descriptor is parsed as strict JSON. Dependency maps keep
// document order, which the dependency resolver relies on for a stable
// traversal.
package manifest

import (
	"context"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

// FileName is the descriptor file name inside every package directory.
const FileName = "package.json"

// UnknownVersion is reported for descriptors without a version string.
const UnknownVersion = "unknown"

// Dependency is one entry of a dependency map.
type Dependency struct {
	Name  string // Package name (map key)
	Range string // Declared version range, not interpreted
}

// Engines holds the engines constraints of a descriptor.
type Engines struct {
	Node string
}

// Descriptor is the parsed content of a package.json file.
// Descriptors are immutable once parsed.
type Descriptor struct {
	Name             string
	Version          string
	Type             string // "module", "commonjs" or empty
	Main             string
	Module           string
	Types            string // "types", falling back to "typings"
	Dependencies     []Dependency
	DevDependencies  []Dependency
	PeerDependencies []Dependency
	Engines          Engines

	named   bool
	exports gjson.Result
}

// Reader is the read side of a file store.
type Reader interface {
	ReadFile(ctx context.Context, loc string) ([]byte, error)
}

// Parse decodes descriptor bytes, tolerating comments and trailing commas.
// It fails with ErrCodeInvalidManifest when the content is not a JSON object.
func Parse(data []byte) (*Descriptor, error) {
	return parse(jsonc.ToJSON(data))
}

// ParseStrict is Parse without the JSONC extensions.
func ParseStrict(data []byte) (*Descriptor, error) {
	return parse(data)
}

func parse(src []byte) (*Descriptor, error) {
	if !gjson.ValidBytes(src) {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "descriptor is not valid JSON")
	}
	root := gjson.ParseBytes(src)
	if !root.IsObject() {
		return nil, errors.New(errors.ErrCodeInvalidManifest, "descriptor is not a JSON object")
	}

	d := &Descriptor{
		Version:          UnknownVersion,
		Type:             stringField(root, "type"),
		Main:             stringField(root, "main"),
		Module:           stringField(root, "module"),
		Types:            stringField(root, "types"),
		Dependencies:     dependencyMap(root.Get("dependencies")),
		DevDependencies:  dependencyMap(root.Get("devDependencies")),
		PeerDependencies: dependencyMap(root.Get("peerDependencies")),
		Engines:          Engines{Node: stringField(root, "engines.node")},
		exports:          root.Get("exports"),
	}
	if name := stringField(root, "name"); name != "" {
		d.Name = name
		d.named = true
	}
	if v := stringField(root, "version"); v != "" {
		d.Version = v
	}
	if d.Types == "" {
		d.Types = stringField(root, "typings")
	}
	return d, nil
}

// Load reads and parses the descriptor at loc.
// A read failure is reported as ErrCodeManifestNotFound.
func Load(ctx context.Context, r Reader, loc string) (*Descriptor, error) {
	return load(ctx, r, loc, Parse)
}

// LoadRoot is Load for a project's own descriptor, which must be strict JSON.
func LoadRoot(ctx context.Context, r Reader, loc string) (*Descriptor, error) {
	return load(ctx, r, loc, ParseStrict)
}

func load(ctx context.Context, r Reader, loc string, parse func([]byte) (*Descriptor, error)) (*Descriptor, error) {
	data, err := r.ReadFile(ctx, loc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeManifestNotFound, err, "read %s", loc)
	}
	d, err := parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", loc)
	}
	return d, nil
}

// HasName reports whether the descriptor declares a usable name.
func (d *Descriptor) HasName() bool { return d.named }

// HasExports reports whether the descriptor declares an exports field.
func (d *Descriptor) HasExports() bool { return d.exports.Exists() }

// Exports returns the raw exports value. Object keys iterate in document order.
func (d *Descriptor) Exports() gjson.Result { return d.exports }

func stringField(r gjson.Result, path string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// dependencyMap converts a JSON object to dependencies in document order.
// Repeated keys keep their first position and their last value, the way
// JavaScript object assignment does. Non-object values yield nil.
func dependencyMap(r gjson.Result) []Dependency {
	if !r.IsObject() {
		return nil
	}
	var out []Dependency
	index := make(map[string]int)
	r.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if name == "" {
			return true
		}
		rng := value.String()
		if i, ok := index[name]; ok {
			out[i].Range = rng
			return true
		}
		index[name] = len(out)
		out = append(out, Dependency{Name: name, Range: rng})
		return true
	})
	return out
}
