package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nodehealth/pkg/deps"
)

var (
	listDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	exactStyle       = lipgloss.NewStyle().Foreground(colorBlue)
	conflictStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	detailTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
)

// =============================================================================
// DuplicateListModel - Interactive duplicate browser
// =============================================================================

// DuplicateListModel is the bubbletea model for browsing duplicate groups.
// The list view shows one row per group; enter opens the group's installs
// and suggestions.
type DuplicateListModel struct {
	Duplicates []deps.Duplicate
	Cursor     int
	Offset     int
	Height     int
	Detail     bool
}

// NewDuplicateListModel creates a duplicate browser.
func NewDuplicateListModel(dups []deps.Duplicate) DuplicateListModel {
	return DuplicateListModel{Duplicates: dups, Height: 15}
}

func (m DuplicateListModel) Init() tea.Cmd {
	return nil
}

func (m DuplicateListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "backspace", "left", "h":
			if m.Detail {
				m.Detail = false
				return m, nil
			}
			if msg.String() == "esc" {
				return m, tea.Quit
			}
		case "up", "k":
			if !m.Detail && m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if !m.Detail && m.Cursor < len(m.Duplicates)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "right", "l":
			if len(m.Duplicates) > 0 {
				m.Detail = true
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m DuplicateListModel) View() string {
	if len(m.Duplicates) == 0 {
		return StyleSuccess.Render("No duplicate dependencies.") + "\n"
	}
	if m.Detail {
		return m.detailView()
	}
	return m.listView()
}

func (m DuplicateListModel) listView() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Duplicate Dependencies"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Duplicates))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		d := m.Duplicates[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, d.Name, string(d.Severity), fmt.Sprint(len(d.Versions)), distinctVersions(d)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Severity", "Installs", "Versions").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Duplicates) {
				return lipgloss.NewStyle()
			}
			style := exactStyle
			if m.Duplicates[idx].Severity == deps.SeverityConflict {
				style = conflictStyle
			}
			if idx == m.Cursor {
				return style.Bold(true)
			}
			return style
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Duplicates))))
	return b.String()
}

func (m DuplicateListModel) detailView() string {
	d := m.Duplicates[m.Cursor]
	var b strings.Builder
	b.WriteString(StyleTitle.Render(d.Name))
	b.WriteString(" " + listDimStyle.Render(fmt.Sprintf("%s · %d installs · saves %d", d.Severity, len(d.Versions), d.PotentialSavings)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("← back  q quit"))
	b.WriteString("\n\n")

	b.WriteString(detailTitleStyle.Render("Installs"))
	b.WriteString("\n")
	for _, n := range d.Versions {
		fmt.Fprintf(&b, "  %s %s\n", StyleNumber.Render(n.Version), listDimStyle.Render("via "+n.Path))
	}
	if len(d.Suggestions) > 0 {
		b.WriteString("\n")
		b.WriteString(detailTitleStyle.Render("Suggestions"))
		b.WriteString("\n")
		for _, s := range d.Suggestions {
			b.WriteString("  " + iconInfo + " " + s + "\n")
		}
	}
	return b.String()
}

// distinctVersions lists a group's versions once each, in install order.
func distinctVersions(d deps.Duplicate) string {
	var out []string
	seen := make(map[string]bool)
	for _, n := range d.Versions {
		if !seen[n.Version] {
			seen[n.Version] = true
			out = append(out, n.Version)
		}
	}
	return strings.Join(out, ", ")
}

// browseDuplicates runs the duplicate browser until the user quits.
func browseDuplicates(dups []deps.Duplicate) error {
	_, err := tea.NewProgram(NewDuplicateListModel(dups), tea.WithAltScreen()).Run()
	return err
}
