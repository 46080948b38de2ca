package deps

import (
	"fmt"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/errors"
)

// DefaultMaxDepth bounds traversal depth when Options.MaxDepth is unset.
const DefaultMaxDepth = 128

// DevScope selects which packages have their devDependencies traversed.
type DevScope int

const (
	// DevRoot traverses only the root package's devDependencies. Installers
	// never install the devDependencies of dependencies.
	DevRoot DevScope = iota
	// DevAll traverses devDependencies at every level.
	DevAll
	// DevNone ignores devDependencies entirely.
	DevNone
)

var devScopeNames = map[DevScope]string{
	DevRoot: "root",
	DevAll:  "all",
	DevNone: "none",
}

func (s DevScope) String() string {
	if name, ok := devScopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("DevScope(%d)", int(s))
}

// ParseDevScope parses "root", "all" or "none".
func ParseDevScope(s string) (DevScope, error) {
	for scope, name := range devScopeNames {
		if strings.EqualFold(s, name) {
			return scope, nil
		}
	}
	return DevRoot, errors.New(errors.ErrCodeInvalidInput, "invalid dev dependency scope %q (want root, all or none)", s)
}

// Options configures dependency resolution behavior.
type Options struct {
	DevDependencies DevScope // Whose devDependencies to traverse (default: DevRoot)
	MaxDepth        int      // Maximum depth to traverse (default: 128)
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return opts
}
