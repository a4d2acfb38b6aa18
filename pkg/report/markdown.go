package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Markdown renders reports as markdown, one section and table per script.
func Markdown(reports []Report) string {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", escapeCell(r.heading()))
		if r.Error != "" {
			fmt.Fprintf(&b, "> **Error:** %s\n", escapeCell(r.Error))
			continue
		}
		if len(r.Findings) == 0 {
			fmt.Fprintf(&b, "%s\n", Summary(0))
			continue
		}
		b.WriteString("| Severity | Rule | Characters | Message |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, f := range r.Findings {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				f.Severity,
				escapeCell(r.Label(f.RuleID)),
				escapeCell(strings.Join(r.Names(f.Characters), ", ")),
				escapeCell(f.Message))
		}
		fmt.Fprintf(&b, "\n%s\n", Summary(len(r.Findings)))
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderMarkdown styles markdown for the terminal. It returns md unchanged
// if glamour cannot render it.
func RenderMarkdown(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
