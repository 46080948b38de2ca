package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/report"
)

func sampleReport() *report.Report {
	return &report.Report{
		ID:        "r1",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Info:      report.Info{Name: "app", Version: "1.0.0", Type: "esm"},
		Messages: []checks.Message{
			{Severity: checks.SeverityWarning, Message: "dup", Source: "dependencies"},
			{Severity: checks.SeverityError, Message: "bad main", Source: "publint"},
			{Severity: checks.SeveritySuggestion, Message: "add types", Source: "types"},
			{Severity: checks.SeveritySuggestion, Message: "custom", Source: "custom"},
		},
		Timings: []report.Timing{
			{Name: "dependencies"},
			{Name: "replacements"},
			{Name: "types"},
			{Name: "publint"},
		},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(sampleReport(), &buf); err != nil {
		t.Fatal(err)
	}
	var back report.Report
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if back.ID != "r1" || len(back.Messages) != 4 {
		t.Errorf("decoded report = %+v", back)
	}
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSARIF(sampleReport(), &buf); err != nil {
		t.Fatal(err)
	}
	doc := gjson.ParseBytes(buf.Bytes())

	if doc.Get("version").String() != "2.1.0" {
		t.Errorf("version = %s", doc.Get("version"))
	}
	run := doc.Get("runs.0")
	if run.Get("tool.driver.name").String() != "nodehealth" {
		t.Errorf("driver = %s", run.Get("tool.driver"))
	}

	var rules []string
	for _, r := range run.Get("tool.driver.rules.#.id").Array() {
		rules = append(rules, r.String())
	}
	if diff := cmp.Diff([]string{"dependencies", "replacements", "types", "publint", "custom"}, rules); diff != "" {
		t.Errorf("rules mismatch (-want +got):\n%s", diff)
	}

	var levels []string
	for _, l := range run.Get("results.#.level").Array() {
		levels = append(levels, l.String())
	}
	if diff := cmp.Diff([]string{"warning", "error", "note", "note"}, levels); diff != "" {
		t.Errorf("levels mismatch (-want +got):\n%s", diff)
	}
	if got := run.Get("results.1.ruleIndex").Int(); got != 3 {
		t.Errorf("publint ruleIndex = %d, want 3", got)
	}
	if got := run.Get("results.0.locations.0.physicalLocation.artifactLocation.uri").String(); got != "package.json" {
		t.Errorf("location = %q", got)
	}
	if !run.Get("invocations.0.executionSuccessful").Bool() {
		t.Error("run without checker failures should be successful")
	}
}

func TestWriteSARIFFailedChecker(t *testing.T) {
	rep := sampleReport()
	rep.Timings[2].Error = "boom"
	var buf bytes.Buffer
	if err := WriteSARIF(rep, &buf); err != nil {
		t.Fatal(err)
	}
	if gjson.GetBytes(buf.Bytes(), "runs.0.invocations.0.executionSuccessful").Bool() {
		t.Error("checker failure should mark the invocation unsuccessful")
	}
}
