package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/deps"
	"github.com/matzehuels/nodehealth/pkg/modtype"
	"github.com/matzehuels/nodehealth/pkg/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		Info: report.Info{Name: "my-app", Version: "1.2.3", Type: modtype.ESM},
		Stats: checks.Stats{
			InstallSize:     2048,
			DependencyCount: checks.DependencyCount{Production: 2, Development: 1, CJS: 3, Duplicate: 1},
			ExtraStats:      []checks.Stat{{Name: "files", Label: "Files", Value: 1200}},
		},
		Messages: []checks.Message{
			{Severity: checks.SeverityWarning, Message: "c is installed twice\n  root > a > c\n  root > b > c", Source: "dependencies"},
			{Severity: checks.SeveritySuggestion, Message: "No type definitions found.", Source: "types"},
		},
		Dependencies: checks.DependencyReport{
			Nodes: []deps.Node{{Name: "my-app"}, {Name: "a"}, {Name: "b"}},
		},
		Timings: []report.Timing{{Name: "publint", Error: "boom"}},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	writeText(&buf, sampleReport())
	out := buf.String()

	for _, want := range []string{
		"my-app@1.2.3",
		"esm",
		"3 installs",
		"2.0 kB",
		"1,200",
		"Files",
		"Warnings (1)",
		"Suggestions (1)",
		"root > b > c",
		"publint check failed: boom",
		"No errors, 2 notes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Errors (") {
		t.Errorf("no error section expected:\n%s", out)
	}
}

func TestWriteTextErrors(t *testing.T) {
	rep := sampleReport()
	rep.Messages = append(rep.Messages, checks.Message{Severity: checks.SeverityError, Message: "pkg.main is missing"})
	rep.Cached = true

	var buf bytes.Buffer
	writeText(&buf, rep)
	out := buf.String()
	for _, want := range []string{"Errors (1)", "3 problems found", "cached"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatStat(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{12345, "12,345"},
		{int64(7), "7"},
		{float64(1000), "1,000"},
		{1.5, "1.5"},
		{"esm", "esm"},
	}
	for _, tt := range tests {
		if got := formatStat(tt.in); got != tt.want {
			t.Errorf("formatStat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
