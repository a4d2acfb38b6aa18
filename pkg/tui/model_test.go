package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/report"
	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

func sampleModel() Model {
	r := report.New("s.json", "Sample", []validate.Finding{
		{Severity: kb.SeverityHigh, RuleID: validate.RuleLegion, Message: "Legion clashes.", Characters: []string{"legion", "homebrew"}},
		{Severity: kb.SeverityLow, RuleID: validate.RuleMisinfo, Message: "Little misinformation.", Characters: []string{"poisoner"}},
	}, kb.Default(), nil)
	return NewModel(r, kb.Default(), []string{"chef", "poisoner", "legion"}, []string{
		"Chef comes before Poisoner because townsfolk comes before minion in type order.",
		"Poisoner comes before Legion because minion comes before demon in type order.",
	})
}

func press(m Model, k string) Model {
	var msg tea.KeyMsg
	switch k {
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModel_Navigation(t *testing.T) {
	m := sampleModel()
	m = press(m, "down")
	if m.selected != 1 {
		t.Fatalf("selected = %d, want 1", m.selected)
	}
	m = press(m, "j")
	if m.selected != 1 {
		t.Errorf("selection should stop at the last finding, got %d", m.selected)
	}
	m = press(m, "k")
	if m.selected != 0 {
		t.Errorf("selected = %d, want 0", m.selected)
	}
}

func TestModel_DetailFollowsSelection(t *testing.T) {
	m := sampleModel()
	if !strings.Contains(m.detail.markdown, "**Legion** (demon)") || !strings.Contains(m.detail.markdown, "**homebrew** (unknown)") {
		t.Errorf("detail = %q", m.detail.markdown)
	}
	m = press(m, "down")
	if m.detail.title != "Misinformation" || !strings.Contains(m.detail.markdown, "Little misinformation.") {
		t.Errorf("detail = %q / %q", m.detail.title, m.detail.markdown)
	}
}

func TestModel_OrderPane(t *testing.T) {
	m := press(sampleModel(), "tab")
	if m.pane != paneOrder || m.selected != 0 {
		t.Fatalf("pane = %v selected = %d", m.pane, m.selected)
	}
	if !strings.Contains(m.detail.markdown, "1. Chef\n2. Poisoner\n3. Legion") {
		t.Errorf("order detail = %q", m.detail.markdown)
	}
	m = press(m, "tab")
	if m.pane != paneFindings {
		t.Error("tab should switch back to findings")
	}
}

func TestModel_Quit(t *testing.T) {
	_, cmd := sampleModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_View(t *testing.T) {
	next, _ := sampleModel().Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	view := next.(Model).View()
	for _, want := range []string{"scriptcheck: Sample", "Findings (2)", "Legion Clashes", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModel_Empty(t *testing.T) {
	m := NewModel(report.New("", "", nil, nil, nil), nil, nil, nil)
	m = press(m, "down")
	if m.selected != 0 {
		t.Errorf("selected = %d", m.selected)
	}
	if !strings.Contains(m.View(), "No issues found!") {
		t.Error("empty view should say no issues found")
	}
	m = press(m, "tab")
	if !strings.Contains(m.View(), "The script is in order.") {
		t.Error("empty order pane")
	}
}
