// Package modtype classifies packages by module system.
package modtype

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/nodehealth/pkg/manifest"
)

// Type is the module system a package ships.
type Type string

const (
	CJS  Type = "cjs"
	ESM  Type = "esm"
	Dual Type = "dual"
)

// Classify decides whether a package is CommonJS, ES-module or dual-mode.
//
// The exports map wins when it names import/require conditions or points at
// .mjs/.cjs files. Otherwise the legacy "module" field next to "main" marks a
// dual package, and "type": "module" an ES-module one.
func Classify(d *manifest.Descriptor) Type {
	if d.HasExports() {
		var s signals
		s.scan(d.Exports(), d.Type == "module", "")
		switch {
		case s.esm && s.cjs:
			return Dual
		case s.esm:
			return ESM
		case s.cjs:
			return CJS
		}
	}

	if d.Module != "" && d.Main != "" && d.Type != "module" {
		return Dual
	}
	if d.Type == "module" {
		if strings.HasSuffix(d.Main, ".cjs") {
			return CJS
		}
		return ESM
	}
	if strings.HasSuffix(d.Main, ".mjs") {
		return ESM
	}
	return CJS
}

type signals struct {
	esm bool
	cjs bool
}

// scan walks an exports value. cond is the module system implied by an
// enclosing import/module or require condition; targets below such a
// condition take that system regardless of their extension.
func (s *signals) scan(v gjson.Result, typeModule bool, cond Type) {
	switch {
	case v.Type == gjson.String:
		s.target(v.String(), typeModule, cond)
	case v.IsArray():
		for _, item := range v.Array() {
			s.scan(item, typeModule, cond)
		}
	case v.IsObject():
		v.ForEach(func(key, value gjson.Result) bool {
			next := cond
			switch key.String() {
			case "import", "module":
				if cond == "" {
					next = ESM
				}
			case "require":
				if cond == "" {
					next = CJS
				}
			case "types", "typings":
				return true
			}
			s.scan(value, typeModule, next)
			return true
		})
	}
}

func (s *signals) target(p string, typeModule bool, cond Type) {
	switch cond {
	case ESM:
		s.esm = true
		return
	case CJS:
		s.cjs = true
		return
	}
	switch {
	case strings.HasSuffix(p, ".mjs"):
		s.esm = true
	case strings.HasSuffix(p, ".cjs"):
		s.cjs = true
	case strings.HasSuffix(p, ".js"):
		if typeModule {
			s.esm = true
		} else {
			s.cjs = true
		}
	}
}
