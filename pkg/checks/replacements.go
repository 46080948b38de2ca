package checks

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/nodehealth/pkg/errors"
	"github.com/matzehuels/nodehealth/pkg/filestore"
	"github.com/matzehuels/nodehealth/pkg/manifest"
)

const (
	docsBaseURL = "https://github.com/es-tooling/eslint-plugin-depend/blob/main/docs/rules/"
	mdnBaseURL  = "https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/"
)

// ReplacementType selects how a replacement advisory is phrased.
type ReplacementType string

const (
	ReplacementNone       ReplacementType = "none"       // remove, the platform covers it
	ReplacementSimple     ReplacementType = "simple"     // free-text replacement
	ReplacementNative     ReplacementType = "native"     // a built-in API, possibly Node-version gated
	ReplacementDocumented ReplacementType = "documented" // a documented list of alternatives
)

// Replacement is one entry of a module-replacements manifest.
type Replacement struct {
	Type        ReplacementType `json:"type"`
	ModuleName  string          `json:"moduleName"`
	Replacement string          `json:"replacement,omitempty"`
	MDNPath     string          `json:"mdnPath,omitempty"`
	NodeVersion string          `json:"nodeVersion,omitempty"`
	DocPath     string          `json:"docPath,omitempty"`
	Category    string          `json:"category,omitempty"`
}

type replacementManifest struct {
	ModuleReplacements []Replacement `json:"moduleReplacements"`
}

//go:embed replacements.json
var builtinManifest []byte

// Builtin returns the embedded replacement list.
func Builtin() []Replacement {
	var m replacementManifest
	if err := json.Unmarshal(builtinManifest, &m); err != nil {
		panic(fmt.Sprintf("checks: embedded replacements manifest: %v", err))
	}
	return m.ModuleReplacements
}

// LoadManifest reads a custom replacements manifest from disk. Every entry
// must name a valid npm package.
func LoadManifest(path string) ([]Replacement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read manifest %s", path)
	}
	var m replacementManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse manifest %s", path)
	}
	for i, r := range m.ModuleReplacements {
		if err := errors.ValidateNpmPackageName(r.ModuleName); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "%s: entry %d", path, i)
		}
	}
	return m.ModuleReplacements, nil
}

// Replacements flags production dependencies that have lighter or native
// alternatives. Custom entries take precedence over built-in ones.
type Replacements struct {
	byName map[string]Replacement
}

// NewReplacements creates the checker from custom entries plus the
// built-in list.
func NewReplacements(custom []Replacement) *Replacements {
	r := &Replacements{byName: make(map[string]Replacement)}
	for _, list := range [][]Replacement{custom, Builtin()} {
		for _, rep := range list {
			if _, ok := r.byName[rep.ModuleName]; !ok {
				r.byName[rep.ModuleName] = rep
			}
		}
	}
	return r
}

func (*Replacements) Name() string { return "replacements" }

func (c *Replacements) Check(ctx context.Context, store filestore.Store) (*Result, error) {
	d, err := manifest.Load(ctx, store, manifest.FileName)
	if err != nil {
		return nil, err
	}
	res := &Result{}
	for _, dep := range d.Dependencies {
		rep, ok := c.byName[dep.Name]
		if !ok {
			continue
		}
		if msg, ok := advise(dep.Name, rep, d.Engines.Node); ok {
			res.Messages = append(res.Messages, Message{Severity: SeverityWarning, Message: msg})
		}
	}
	return res, nil
}

// advise phrases the advisory for one dependency. Native replacements that
// the package's engines.node range cannot rely on produce nothing.
func advise(name string, rep Replacement, enginesNode string) (string, bool) {
	switch rep.Type {
	case ReplacementNone:
		return fmt.Sprintf("Module %q can be removed, and native functionality used instead", name), true
	case ReplacementSimple:
		return fmt.Sprintf("Module %q can be replaced. %s.", name, rep.Replacement), true
	case ReplacementNative:
		if rep.NodeVersion != "" && enginesNode != "" && !nodeEngineCompatible(rep.NodeVersion, enginesNode) {
			return "", false
		}
		requires := ""
		if rep.NodeVersion != "" && enginesNode == "" {
			requires = fmt.Sprintf(" Required Node >= %s.", rep.NodeVersion)
		}
		return fmt.Sprintf("Module %q can be replaced with native functionality. Use %q instead.%s You can read more at %s.",
			name, rep.Replacement, requires, mdnBaseURL+rep.MDNPath), true
	case ReplacementDocumented:
		return fmt.Sprintf("Module %q can be replaced with a more performant alternative. See the list of available alternatives at %s.",
			name, docsBaseURL+rep.DocPath+".md"), true
	}
	return "", false
}
