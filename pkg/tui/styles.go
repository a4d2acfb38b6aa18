// Package tui is a terminal browser for scriptcheck findings.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
)

// Severity glyphs, so meaning does not rely on color alone.
const (
	GlyphHigh   = "✗"
	GlyphMedium = "▲"
	GlyphLow    = "○"
	GlyphCursor = "▸"
)

var (
	colorGreen  = lipgloss.Color("42")
	colorRed    = lipgloss.Color("196")
	colorYellow = lipgloss.Color("214")
	colorBlue   = lipgloss.Color("39")
	colorCyan   = lipgloss.Color("51")
	colorDim    = lipgloss.Color("240")
	colorWhite  = lipgloss.Color("255")
)

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorCyan).
	Padding(0, 1)

var tabActiveStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("0")).
	Background(colorCyan).
	Padding(0, 1)

var tabStyle = lipgloss.NewStyle().
	Foreground(colorDim).
	Padding(0, 1)

// --- List styles ---

var (
	itemNormal = lipgloss.NewStyle().
			Foreground(colorWhite)

	itemSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorYellow)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen).
		Bold(true)
)

// --- Panel styles ---

var (
	panelBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim)

	panelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			Padding(0, 1)
)

// --- Key bar styles ---

var (
	keyStyle = lipgloss.NewStyle().
			Foreground(colorCyan).
			Bold(true)

	keyDescStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	keyBarStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

func severityGlyph(s kb.Severity) string {
	switch s {
	case kb.SeverityHigh:
		return GlyphHigh
	case kb.SeverityMedium:
		return GlyphMedium
	}
	return GlyphLow
}

func severityStyle(s kb.Severity) lipgloss.Style {
	switch s {
	case kb.SeverityHigh:
		return lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	case kb.SeverityMedium:
		return lipgloss.NewStyle().Foreground(colorYellow)
	}
	return lipgloss.NewStyle().Foreground(colorDim)
}
