package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/report"
)

type pane int

const (
	paneFindings pane = iota
	paneOrder
)

// Model is the Bubble Tea model for the findings browser.
type Model struct {
	report      report.Report
	look        kb.Lookup
	order       []string // sorted character IDs
	explanation []string
	pane        pane
	selected    int
	detail      detailPanel
	width       int
	height      int
}

// NewModel builds a browser for one report. look resolves character
// details; order and explanation describe the sorted script.
func NewModel(r report.Report, look kb.Lookup, order, explanation []string) Model {
	if look == nil {
		look = kb.Default()
	}
	m := Model{report: r, look: look, order: order, explanation: explanation}
	m.showSelection()
	return m
}

// Run starts the browser in the alternate screen.
func Run(r report.Report, look kb.Lookup, order, explanation []string) error {
	p := tea.NewProgram(NewModel(r, look, order, explanation), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			if m.selected > 0 {
				m.selected--
				m.showSelection()
			}
		case key.Matches(msg, keys.Down):
			if m.selected < m.items()-1 {
				m.selected++
				m.showSelection()
			}
		case key.Matches(msg, keys.Tab):
			if m.pane == paneFindings {
				m.pane = paneOrder
			} else {
				m.pane = paneFindings
			}
			m.selected = 0
			m.showSelection()
		case key.Matches(msg, keys.PgUp):
			m.detail.PageUp()
		case key.Matches(msg, keys.PgDown):
			m.detail.PageDown()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.detail.SetSize(msg.Width, max(msg.Height-m.listHeight()-4, 5))

	case tea.MouseMsg:
		m.detail.Update(msg)
	}
	return m, nil
}

// items is the length of the active list.
func (m Model) items() int {
	if m.pane == paneOrder {
		return len(m.explanation)
	}
	return len(m.report.Findings)
}

func (m Model) listHeight() int {
	return max(min(m.items(), 10), 1)
}

func (m *Model) showSelection() {
	if m.pane == paneOrder {
		m.detail.Show("Script order", orderMarkdown(m.report, m.order))
		return
	}
	if len(m.report.Findings) == 0 {
		m.detail.Show("Finding", report.Summary(0))
		return
	}
	f := m.report.Findings[m.selected]
	m.detail.Show(m.report.Label(f.RuleID), findingMarkdown(m.report, m.selected, m.look))
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := m.report.Title
	if title == "" {
		title = m.report.File
	}
	if title == "" {
		title = "script"
	}
	b.WriteString(headerStyle.Render("scriptcheck: "+title) + "  ")
	for _, t := range []struct {
		p    pane
		name string
	}{{paneFindings, fmt.Sprintf("Findings (%d)", len(m.report.Findings))}, {paneOrder, "Order"}} {
		if t.p == m.pane {
			b.WriteString(tabActiveStyle.Render(t.name))
		} else {
			b.WriteString(tabStyle.Render(t.name))
		}
	}
	b.WriteString("\n\n")

	for _, line := range m.listLines() {
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.detail.View())
	b.WriteString("\n")
	b.WriteString(keyBarStyle.Render(keyBarText()))
	return b.String()
}

// listLines renders the visible window of the active list.
func (m Model) listLines() []string {
	n := m.items()
	if n == 0 {
		if m.pane == paneOrder {
			return []string{"  " + okStyle.Render("The script is in order.")}
		}
		return []string{"  " + okStyle.Render(report.Summary(0))}
	}
	height := m.listHeight()
	start := max(min(m.selected-height/2, n-height), 0)
	end := min(start+height, n)

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		var text string
		if m.pane == paneOrder {
			text = m.explanation[i]
		} else {
			f := m.report.Findings[i]
			text = severityStyle(f.Severity).Render(severityGlyph(f.Severity)+" "+f.Severity.String()) +
				"  " + m.report.Label(f.RuleID)
		}
		if i == m.selected {
			lines = append(lines, itemSelected.Render(GlyphCursor+" ")+text)
		} else {
			lines = append(lines, itemNormal.Render("  ")+text)
		}
	}
	return lines
}

// findingMarkdown describes one finding with the characters it names.
func findingMarkdown(r report.Report, i int, look kb.Lookup) string {
	f := r.Findings[i]
	var b strings.Builder
	fmt.Fprintf(&b, "### %s (%s)\n\n%s\n", r.Label(f.RuleID), f.Severity, f.Message)
	if len(f.Characters) == 0 {
		return b.String()
	}
	b.WriteString("\n**Characters**\n\n")
	names := r.Names(f.Characters)
	for j, id := range f.Characters {
		c, ok := look.Character(id)
		if !ok {
			fmt.Fprintf(&b, "- **%s** (unknown)\n", names[j])
			continue
		}
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", names[j], c.Team, c.Ability)
	}
	return b.String()
}

func orderMarkdown(r report.Report, order []string) string {
	if len(order) == 0 {
		return "The script has no characters."
	}
	var b strings.Builder
	for i, name := range r.Names(order) {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	return b.String()
}
