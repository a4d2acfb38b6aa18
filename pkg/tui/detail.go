package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ormasoftchile/scriptcheck/pkg/report"
)

// detailPanel shows scrollable markdown for the current selection.
type detailPanel struct {
	viewport viewport.Model
	title    string
	markdown string
	width    int
	height   int
	ready    bool
}

// SetSize updates the viewport dimensions.
func (p *detailPanel) SetSize(width, height int) {
	p.width = width
	p.height = height

	contentW := max(width-4, 1)  // border and padding
	contentH := max(height-3, 1) // title and border

	if !p.ready {
		p.viewport = viewport.New(contentW, contentH)
		p.ready = true
	} else {
		p.viewport.Width = contentW
		p.viewport.Height = contentH
	}
	p.refresh()
}

// Show replaces the panel content.
func (p *detailPanel) Show(title, md string) {
	p.title = title
	p.markdown = md
	p.refresh()
	if p.ready {
		p.viewport.GotoTop()
	}
}

func (p *detailPanel) refresh() {
	if !p.ready {
		return
	}
	p.viewport.SetContent(report.RenderMarkdown(p.markdown, p.viewport.Width))
}

func (p *detailPanel) Update(msg tea.Msg) {
	if p.ready {
		p.viewport, _ = p.viewport.Update(msg)
	}
}

func (p *detailPanel) PageUp() {
	if p.ready {
		p.viewport.HalfViewUp()
	}
}

func (p *detailPanel) PageDown() {
	if p.ready {
		p.viewport.HalfViewDown()
	}
}

// View renders the panel.
func (p *detailPanel) View() string {
	header := panelTitle.Render(p.title)
	content := p.markdown
	if p.ready {
		content = p.viewport.View()
		if p.viewport.TotalLineCount() > p.viewport.VisibleLineCount() {
			pct := fmt.Sprintf(" %3.0f%%", p.viewport.ScrollPercent()*100)
			pad := max(p.width-4-len(p.title)-len(pct), 0)
			header += strings.Repeat(" ", pad) + keyDescStyle.Render(pct)
		}
	}
	return panelBorder.Width(p.width).Render(header + "\n" + content)
}
