package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/nodehealth/pkg/buildinfo"
	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/manifest"
	"github.com/matzehuels/nodehealth/pkg/report"
)

// SARIF format specification: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"
	toolName     = "nodehealth"
	toolURI      = "https://github.com/matzehuels/nodehealth"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Results     []sarifResult     `json:"results"`
	Invocations []sarifInvocation `json:"invocations"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	RuleIndex int             `json:"ruleIndex"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifInvocation struct {
	ExecutionSuccessful bool   `json:"executionSuccessful"`
	EndTimeUTC          string `json:"endTimeUtc"`
}

// ruleDescriptions covers the built-in checkers; other checkers get a
// generic description.
var ruleDescriptions = map[string]string{
	"dependencies": "Duplicate installs in node_modules",
	"replacements": "Dependencies with lighter or native replacements",
	"types":        "TypeScript declaration problems",
	"publint":      "Packaging metadata problems",
}

// Level maps a message severity to a SARIF result level.
func Level(s checks.Severity) string {
	switch s {
	case checks.SeverityError:
		return "error"
	case checks.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}

// WriteSARIF encodes rep as a SARIF 2.1.0 log with one rule per checker
// and writes it to w. Every result points at the package descriptor.
func WriteSARIF(rep *report.Report, w io.Writer) error {
	var rules []sarifRule
	index := make(map[string]int)
	addRule := func(id string) int {
		if i, ok := index[id]; ok {
			return i
		}
		desc, ok := ruleDescriptions[id]
		if !ok {
			desc = "Findings of the " + id + " checker"
		}
		index[id] = len(rules)
		rules = append(rules, sarifRule{ID: id, ShortDescription: sarifMessage{Text: desc}})
		return index[id]
	}
	for _, t := range rep.Timings {
		addRule(t.Name)
	}

	results := make([]sarifResult, 0, len(rep.Messages))
	for _, m := range rep.Messages {
		id := m.Source
		if id == "" {
			id = "nodehealth"
		}
		results = append(results, sarifResult{
			RuleID:    id,
			RuleIndex: addRule(id),
			Level:     Level(m.Severity),
			Message:   sarifMessage{Text: m.Message},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: manifest.FileName},
				},
			}},
		})
	}

	failed := false
	for _, t := range rep.Timings {
		failed = failed || t.Error != ""
	}

	out := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           toolName,
				Version:        strings.TrimPrefix(buildinfo.Version, "v"),
				InformationURI: toolURI,
				Rules:          rules,
			}},
			Results: results,
			Invocations: []sarifInvocation{{
				ExecutionSuccessful: !failed,
				EndTimeUTC:          rep.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			}},
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode sarif: %w", err)
	}
	return nil
}
