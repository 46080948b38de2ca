// Package report aggregates checker results into a package health report.
//
// A [Runner] reads the root descriptor, runs every checker concurrently
// against a file store, and merges their messages and statistics in
// checker order. Reports of content-addressed stores (packed tarballs) are
// cached by archive digest.
//
//	runner := report.NewRunner(cache, nil, logger)
//	rep, err := runner.Run(ctx, store, report.Options{})
//	if err != nil {
//	    return err // root package.json missing or malformed, or a required checker failed
//	}
//	for _, m := range rep.Messages {
//	    fmt.Println(m.Severity, m.Message)
//	}
package report

import (
	"time"

	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/modtype"
)

// Info identifies the analyzed package.
type Info struct {
	Name    string       `json:"name"`
	Version string       `json:"version"`
	Type    modtype.Type `json:"type"`
}

// Timing records how long one checker ran and whether it failed.
type Timing struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Report is the result of one analysis.
type Report struct {
	ID           string                  `json:"id"`
	CreatedAt    time.Time               `json:"created_at"`
	Root         string                  `json:"root"`
	Digest       string                  `json:"digest,omitempty"`
	Info         Info                    `json:"info"`
	Stats        checks.Stats            `json:"stats"`
	Messages     []checks.Message        `json:"messages"`
	Dependencies checks.DependencyReport `json:"dependencies"`
	Timings      []Timing                `json:"timings"`

	// Cached is set when the report was served from the cache.
	Cached bool `json:"-"`
}

// BySeverity returns the messages of one severity in report order.
func (r *Report) BySeverity(sev checks.Severity) []checks.Message {
	var out []checks.Message
	for _, m := range r.Messages {
		if m.Severity == sev {
			out = append(out, m)
		}
	}
	return out
}

// HasErrors reports whether any message has error severity.
func (r *Report) HasErrors() bool {
	for _, m := range r.Messages {
		if m.Severity == checks.SeverityError {
			return true
		}
	}
	return false
}
