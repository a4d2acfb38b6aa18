// Package report renders validation findings as text, JSON or markdown.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

// Format selects a renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatMarkdown:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q: must be text, json, or markdown", s)
}

// Report is the result of checking one script.
type Report struct {
	File     string             `json:"file,omitempty"`
	Title    string             `json:"title,omitempty"`
	Findings []validate.Finding `json:"findings"`
	Error    string             `json:"error,omitempty"`

	look   kb.Lookup
	labels func(validate.RuleID) string
}

// New builds a report. look resolves character display names and labels
// resolves rule labels; either may be nil.
func New(file, title string, findings []validate.Finding, look kb.Lookup, labels func(validate.RuleID) string) Report {
	out := make([]validate.Finding, len(findings))
	for i, f := range findings {
		if f.Characters == nil {
			f.Characters = []string{}
		}
		out[i] = f
	}
	return Report{File: file, Title: title, Findings: out, look: look, labels: labels}
}

// Failed builds a report for a script that could not be checked.
func Failed(file string, err error) Report {
	return Report{File: file, Findings: []validate.Finding{}, Error: err.Error()}
}

// Names returns display names for ids, falling back to the ID.
func (r Report) Names(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id
		if r.look == nil {
			continue
		}
		if c, ok := r.look.Character(id); ok {
			out[i] = c.DisplayName()
		}
	}
	return out
}

// Label returns the label for a rule.
func (r Report) Label(id validate.RuleID) string {
	if r.labels != nil {
		return r.labels(id)
	}
	return validate.Label(id)
}

// heading names the report for humans.
func (r Report) heading() string {
	switch {
	case r.File != "" && r.Title != "":
		return fmt.Sprintf("%s (%s)", r.Title, r.File)
	case r.Title != "":
		return r.Title
	case r.File != "":
		return r.File
	}
	return "script"
}

// Summary is the closing line for a report.
func Summary(n int) string {
	if n == 0 {
		return "No issues found!"
	}
	return fmt.Sprintf("Found %d issue(s)", n)
}

// Options controls rendering.
type Options struct {
	// Color enables terminal styling.
	Color bool
	// Width wraps rendered markdown; 0 disables wrapping.
	Width int
}

// Write renders reports in the requested format.
func Write(w io.Writer, format Format, reports []Report, opts Options) error {
	switch format {
	case FormatJSON:
		return JSON(w, reports)
	case FormatMarkdown:
		md := Markdown(reports)
		if opts.Color {
			md = RenderMarkdown(md, opts.Width)
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(md, "\n"))
		return err
	default:
		return Text(w, reports, opts)
	}
}

// JSON writes reports as an indented JSON array.
func JSON(w io.Writer, reports []Report) error {
	if reports == nil {
		reports = []Report{}
	}
	data, err := json.MarshalIndent(reports, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
