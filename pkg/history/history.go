// Package history keeps analyzed reports so the HTTP service can list and
// return them later.
//
// Two backends are provided:
//   - [MemoryStore]: process-local, bounded, for the CLI and tests
//   - [MongoStore]: MongoDB-backed, shared across service instances
//
// Stores return [errors.ErrCodeReportNotFound] for unknown IDs and list
// reports newest first.
package history

import (
	"context"
	"time"

	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/report"
)

// DefaultListLimit bounds List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Summary is the listing view of a stored report.
type Summary struct {
	ID          string    `json:"id" bson:"_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Name        string    `json:"name" bson:"name"`
	Version     string    `json:"version" bson:"version"`
	Errors      int       `json:"errors" bson:"errors"`
	Warnings    int       `json:"warnings" bson:"warnings"`
	Suggestions int       `json:"suggestions" bson:"suggestions"`
	Duplicates  int       `json:"duplicates" bson:"duplicates"`
}

// Summarize builds the listing view of rep.
func Summarize(rep *report.Report) Summary {
	return Summary{
		ID:          rep.ID,
		CreatedAt:   rep.CreatedAt,
		Name:        rep.Info.Name,
		Version:     rep.Info.Version,
		Errors:      len(rep.BySeverity(checks.SeverityError)),
		Warnings:    len(rep.BySeverity(checks.SeverityWarning)),
		Suggestions: len(rep.BySeverity(checks.SeveritySuggestion)),
		Duplicates:  len(rep.Dependencies.Duplicates),
	}
}

// Store persists reports.
type Store interface {
	// Save stores rep under rep.ID, replacing an earlier report with the
	// same ID.
	Save(ctx context.Context, rep *report.Report) error

	// Get returns the report with the given ID.
	Get(ctx context.Context, id string) (*report.Report, error)

	// List returns up to limit summaries, newest first.
	List(ctx context.Context, limit int) ([]Summary, error)

	// Close releases backend resources.
	Close() error
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
