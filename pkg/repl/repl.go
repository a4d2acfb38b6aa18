// Package repl implements the interactive paste prompt.
//
// Script JSON pasted at the prompt is checked as soon as it forms a complete
// document, or on the next blank line. Lines starting with ':' are commands.
package repl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/report"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
	"github.com/ormasoftchile/scriptcheck/pkg/sorter"
	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

// Session holds the prompt state: a pending paste buffer and the current
// script.
type Session struct {
	base      *kb.KnowledgeBase
	validator *validate.Validator
	ordered   *validate.Validator
	sorter    *sorter.Sorter
	output    io.Writer
	color     bool

	pending []string
	current *script.Script
	order   bool
}

// New creates a session over base with the given check options.
func New(base *kb.KnowledgeBase, opts validate.Options) *Session {
	ordered := opts
	ordered.ScriptOrder = true
	return &Session{
		base:      base,
		validator: validate.New(base, opts),
		ordered:   validate.New(base, ordered),
		sorter:    sorter.New(base),
		output:    os.Stdout,
		current:   script.New(),
		order:     opts.ScriptOrder,
	}
}

// SetOutput redirects session output. color enables styled reports.
func (s *Session) SetOutput(w io.Writer, color bool) {
	s.output = w
	s.color = color
}

var commands = []string{":add", ":remove", ":show", ":sort", ":explain", ":order", ":rules", ":clear", ":help", ":quit"}

// Run starts the interactive loop.
func (s *Session) Run(ctx context.Context) error {
	ids := func(string) []string { return s.base.IDs() }
	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		switch cmd {
		case ":add", ":remove":
			completer.Children = append(completer.Children, readline.PcItem(cmd, readline.PcItemDynamic(ids)))
		default:
			completer.Children = append(completer.Children, readline.PcItem(cmd))
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(s.output, "scriptcheck: paste a script and press enter on a blank line. Type ':help' for commands.\n\n")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return nil
			}
			return err
		}
		if quit := s.HandleLine(line); quit {
			return nil
		}
	}
}

// prompt shows the character count, or a continuation marker mid-paste.
func (s *Session) prompt() string {
	if len(s.pending) > 0 {
		return "...> "
	}
	return fmt.Sprintf("scriptcheck[%d]> ", len(s.current.IDs()))
}

// HandleLine processes one input line and reports whether to exit.
func (s *Session) HandleLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	switch {
	case trimmed == "":
		if len(s.pending) > 0 {
			s.flush()
		}
		return false
	case len(s.pending) == 0 && strings.HasPrefix(trimmed, ":"):
		return s.command(strings.Fields(trimmed))
	}

	s.pending = append(s.pending, line)
	if json.Valid([]byte(strings.Join(s.pending, "\n"))) {
		s.flush()
	}
	return false
}

// flush parses the pending paste, replacing the current script on success.
func (s *Session) flush() {
	data := strings.Join(s.pending, "\n")
	s.pending = nil
	sc, err := script.Parse([]byte(data))
	if err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
		return
	}
	s.current = sc
	s.check()
}

// check validates the current script and prints the report.
func (s *Session) check() {
	v := s.validator
	if s.order {
		v = s.ordered
	}
	r := report.New("", s.current.Title(), v.Validate(s.current), s.current.Lookup(s.base), v.Label)
	if err := report.Text(s.output, []report.Report{r}, report.Options{Color: s.color}); err != nil {
		fmt.Fprintf(s.output, "Error: %v\n", err)
	}
}
