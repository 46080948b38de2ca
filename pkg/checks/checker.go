// Package checks defines the checker plugin contract and the built-in
// checkers that contribute findings and statistics to a report.
package checks

import (
	"context"

	"github.com/matzehuels/nodehealth/pkg/deps"
	"github.com/matzehuels/nodehealth/pkg/filestore"
)

// Severity of a finding.
type Severity string

const (
	SeverityError      Severity = "error"
	SeverityWarning    Severity = "warning"
	SeveritySuggestion Severity = "suggestion"
)

// Message is one finding.
type Message struct {
	Severity Severity `json:"severity"`
	Score    int      `json:"score"`
	Message  string   `json:"message"`
	Source   string   `json:"source,omitempty"` // checker name, filled by the runner
}

// Result is what a checker contributes to a report. All fields are optional.
type Result struct {
	Messages     []Message
	Stats        *Stats
	Dependencies *DependencyReport
}

// DependencyReport is the resolved graph section of a report.
type DependencyReport struct {
	Nodes      []deps.Node      `json:"nodes"`
	Edges      []deps.Edge      `json:"edges,omitempty"`
	Duplicates []deps.Duplicate `json:"duplicates"`
}

// Checker inspects a package through its file store.
// Check must only read from the store; checkers run concurrently.
type Checker interface {
	Name() string
	Check(ctx context.Context, store filestore.Store) (*Result, error)
}

// Requirer is implemented by checkers whose failure must abort the report.
type Requirer interface {
	Required() bool
}

// IsRequired reports whether c's failure is fatal.
func IsRequired(c Checker) bool {
	r, ok := c.(Requirer)
	return ok && r.Required()
}

// Defaults returns the built-in checkers in report order.
func Defaults(opts deps.Options, custom []Replacement) []Checker {
	return []Checker{
		NewDependencies(opts),
		NewReplacements(custom),
		NewTypes(),
		NewPublint(),
	}
}
