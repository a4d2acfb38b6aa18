package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorCyan)

	labelStyle = lipgloss.NewStyle().
			Bold(true)

	charactersStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)
)

// SeverityStyle returns the style used for a severity badge.
func SeverityStyle(s kb.Severity) lipgloss.Style {
	switch s {
	case kb.SeverityHigh:
		return lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	case kb.SeverityMedium:
		return lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(colorDim)
}

// painter applies a style only when color is on.
type painter bool

func (p painter) paint(st lipgloss.Style, s string) string {
	if !p {
		return s
	}
	return st.Render(s)
}

// Text writes reports as aligned plain text, optionally styled.
func Text(w io.Writer, reports []Report, opts Options) error {
	p := painter(opts.Color)
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		if len(reports) > 1 || r.File != "" || r.Title != "" {
			b.WriteString(p.paint(headingStyle, r.heading()) + "\n")
		}
		if r.Error != "" {
			b.WriteString("  " + p.paint(errorStyle, "error: "+r.Error) + "\n")
			continue
		}
		writeFindings(&b, r, p)
		summary := Summary(len(r.Findings))
		if len(r.Findings) == 0 {
			summary = p.paint(okStyle, summary)
		}
		b.WriteString(summary + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeFindings(b *strings.Builder, r Report, p painter) {
	sevWidth, labelWidth := 0, 0
	for _, f := range r.Findings {
		sevWidth = max(sevWidth, runewidth.StringWidth(strings.ToUpper(f.Severity.String())))
		labelWidth = max(labelWidth, runewidth.StringWidth(r.Label(f.RuleID)))
	}
	indent := strings.Repeat(" ", 2+sevWidth+2)

	for _, f := range r.Findings {
		sev := runewidth.FillRight(strings.ToUpper(f.Severity.String()), sevWidth)
		label := r.Label(f.RuleID)
		line := "  " + p.paint(SeverityStyle(f.Severity), sev) + "  " + p.paint(labelStyle, label)
		if names := r.Names(f.Characters); len(names) > 0 {
			pad := strings.Repeat(" ", labelWidth-runewidth.StringWidth(label))
			line += pad + "  " + p.paint(charactersStyle, strings.Join(names, ", "))
		}
		b.WriteString(line + "\n")
		b.WriteString(indent + f.Message + "\n")
	}
}

// Line renders one finding on a single line, as used by the paste prompt.
func Line(r Report, i int) string {
	f := r.Findings[i]
	s := fmt.Sprintf("[%s] %s: %s", f.Severity, r.Label(f.RuleID), f.Message)
	if names := r.Names(f.Characters); len(names) > 0 {
		s += " (" + strings.Join(names, ", ") + ")"
	}
	return s
}
