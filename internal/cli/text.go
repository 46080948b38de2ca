package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/matzehuels/nodehealth/pkg/checks"
	"github.com/matzehuels/nodehealth/pkg/report"
)

// writeText renders rep for a terminal: a summary table followed by the
// messages grouped by severity.
func writeText(w io.Writer, rep *report.Report) {
	title := rep.Info.Name
	if rep.Info.Version != "" {
		title += "@" + rep.Info.Version
	}
	fmt.Fprintln(w, StyleTitle.Render(title))
	fmt.Fprintln(w, statusLine(rep))
	fmt.Fprintln(w)
	fmt.Fprintln(w, statsTable(rep).Render())

	for _, sev := range []checks.Severity{checks.SeverityError, checks.SeverityWarning, checks.SeveritySuggestion} {
		msgs := rep.BySeverity(sev)
		if len(msgs) == 0 {
			continue
		}
		name, icon, style := severityStyle(sev)
		fmt.Fprintln(w)
		fmt.Fprintln(w, style.Bold(true).Render(fmt.Sprintf("%s (%d)", name, len(msgs))))
		for _, m := range msgs {
			fmt.Fprintln(w, style.Render(icon)+" "+indent(m.Message, "  "))
		}
	}

	for _, t := range rep.Timings {
		if t.Error != "" {
			fmt.Fprintln(w)
			printDetail(w, "%s check failed: %s", t.Name, t.Error)
		}
	}

	fmt.Fprintln(w)
	if rep.HasErrors() {
		printError(w, "%d problems found", len(rep.Messages))
	} else if len(rep.Messages) > 0 {
		printSuccess(w, "No errors, %d notes", len(rep.Messages))
	} else {
		printSuccess(w, "No problems found")
	}
}

// statusLine summarizes module type, graph size and cache state on one line.
func statusLine(rep *report.Report) string {
	parts := []string{
		string(rep.Info.Type),
		fmt.Sprintf("%d installs", len(rep.Dependencies.Nodes)),
		fmt.Sprintf("%d edges", len(rep.Dependencies.Edges)),
	}
	status, style := iconFresh, styleComputed
	if rep.Cached {
		status, style = iconCached, styleCached
	}

	line := "  "
	for i, p := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(p)
	}
	return line + StyleDim.Render(" · ") + style.Render(status)
}

func statsTable(rep *report.Report) *table.Table {
	s := rep.Stats
	rows := [][]string{
		{"Install size", humanize.Bytes(uint64(max(s.InstallSize, 0)))},
		{"Dependencies", fmt.Sprintf("%d production, %d development", s.DependencyCount.Production, s.DependencyCount.Development)},
		{"Module types", fmt.Sprintf("%d cjs, %d esm", s.DependencyCount.CJS, s.DependencyCount.ESM)},
		{"Duplicates", humanize.Comma(int64(s.DependencyCount.Duplicate))},
	}
	for _, e := range s.ExtraStats {
		rows = append(rows, []string{e.DisplayName(), formatStat(e.Value)})
	}

	keyStyle := lipgloss.NewStyle().Foreground(colorGray).PaddingRight(1)
	valueStyle := lipgloss.NewStyle().Foreground(colorWhite).PaddingLeft(1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return keyStyle
			}
			return valueStyle
		})
}

func formatStat(v any) string {
	switch n := v.(type) {
	case int:
		return humanize.Comma(int64(n))
	case int64:
		return humanize.Comma(n)
	case float64:
		if n == float64(int64(n)) {
			return humanize.Comma(int64(n))
		}
		return humanize.Ftoa(n)
	}
	return fmt.Sprint(v)
}

// indent prefixes every line after the first.
func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
