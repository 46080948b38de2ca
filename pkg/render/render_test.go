package render

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/deps"
	"github.com/matzehuels/nodehealth/pkg/errors"
)

func sampleReport() checks.DependencyReport {
	root := deps.Node{Name: "app", Version: "1.0.0", Path: "root", PackagePath: "package.json"}
	a := deps.Node{Name: "a", Version: "1.0.0", Path: "root > a", Parent: "app", Depth: 1, PackagePath: "node_modules/a/package.json"}
	c1 := deps.Node{Name: "c", Version: "1.0.0", Path: "root > a > c", Parent: "a", Depth: 2, PackagePath: "node_modules/a/node_modules/c/package.json"}
	c2 := deps.Node{Name: "c", Version: "2.0.0", Path: "root > c", Parent: "app", Depth: 1, PackagePath: "node_modules/c/package.json"}
	return checks.DependencyReport{
		Nodes: []deps.Node{root, a, c1, c2},
		Edges: []deps.Edge{
			{From: root.PackagePath, To: a.PackagePath},
			{From: root.PackagePath, To: c2.PackagePath},
			{From: a.PackagePath, To: c1.PackagePath},
		},
		Duplicates: []deps.Duplicate{{Name: "c", Versions: []deps.Node{c1, c2}, Severity: deps.SeverityConflict}},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(sampleReport(), Options{})

	for _, want := range []string{
		"digraph G {",
		`"package.json" [label="app\n1.0.0", penwidth=2`,
		`"node_modules/a/package.json" [label="a\n1.0.0"];`,
		`"node_modules/c/package.json" [label="c\n2.0.0", fillcolor="` + ConflictColor + `"];`,
		`"package.json" -> "node_modules/a/package.json";`,
		`"node_modules/a/package.json" -> "node_modules/a/node_modules/c/package.json";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q\n%s", want, dot)
		}
	}
}

func TestToDOTExactDuplicate(t *testing.T) {
	r := sampleReport()
	r.Duplicates[0].Severity = deps.SeverityExact
	dot := ToDOT(r, Options{Detailed: true})
	if !strings.Contains(dot, ExactColor) || strings.Contains(dot, ConflictColor) {
		t.Errorf("exact duplicates should use the exact color:\n%s", dot)
	}
	if !strings.Contains(dot, `root > a > c\ndepth: 2`) {
		t.Errorf("detailed labels should include path and depth:\n%s", dot)
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		name string
		want Format
		ok   bool
	}{
		{"graph.svg", FormatSVG, true},
		{"graph.DOT", FormatDOT, true},
		{"graph.gv", FormatDOT, true},
		{"out/graph.png", FormatPNG, true},
		{"graph.pdf", FormatPDF, true},
		{"graph.txt", "", false},
		{"graph", "", false},
	}
	for _, tt := range tests {
		got, err := FormatFor(tt.name)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("FormatFor(%q) = %q, %v", tt.name, got, err)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("FormatFor(%q) error code = %v", tt.name, errors.GetCode(err))
		}
	}
}

func TestRenderDOTPassthrough(t *testing.T) {
	dot := ToDOT(sampleReport(), Options{})
	out, err := Render(context.Background(), dot, FormatDOT)
	if err != nil || string(out) != dot {
		t.Errorf("Render(dot) = %q, %v", out, err)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleReport(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	s := string(svg)
	if !strings.Contains(s, "<svg") || !strings.Contains(s, "</svg>") {
		t.Errorf("not an SVG document: %.200s", s)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", got, want)
	}

	plain := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("SVG without viewBox should be unchanged")
	}
}
