package repl

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/ormasoftchile/scriptcheck/pkg/script"
)

func (s *Session) command(parts []string) bool {
	switch parts[0] {
	case ":add", ":a":
		s.handleAdd(parts[1:])
	case ":remove", ":rm":
		s.handleRemove(parts[1:])
	case ":show":
		s.handleShow()
	case ":sort":
		s.handleSort()
	case ":explain":
		s.handleExplain()
	case ":order":
		s.order = !s.order
		state := "off"
		if s.order {
			state = "on"
		}
		fmt.Fprintf(s.output, "  Script order check %s.\n", state)
	case ":rules":
		s.handleRules()
	case ":clear":
		s.current = script.New()
		fmt.Fprintln(s.output, "  Cleared.")
	case ":help", ":?":
		s.handleHelp()
	case ":quit", ":q":
		fmt.Fprintln(s.output, "Bye.")
		return true
	default:
		fmt.Fprintf(s.output, "Unknown command: %q. Type ':help' for available commands.\n", parts[0])
	}
	return false
}

// handleAdd appends character references and re-checks.
func (s *Session) handleAdd(ids []string) {
	if len(ids) == 0 {
		fmt.Fprintln(s.output, "  Usage: :add <id>...")
		return
	}
	have := s.current.IDs()
	for _, id := range ids {
		id = strings.ToLower(id)
		if slices.Contains(have, id) {
			fmt.Fprintf(s.output, "  %s is already on the script\n", id)
			continue
		}
		if _, ok := s.base.Character(id); !ok {
			fmt.Fprintf(s.output, "  Warning: %s is not a known character\n", id)
		}
		s.current.Elements = append(s.current.Elements, script.Reference{ID: id})
		have = append(have, id)
	}
	s.check()
}

func (s *Session) handleRemove(ids []string) {
	if len(ids) == 0 {
		fmt.Fprintln(s.output, "  Usage: :remove <id>...")
		return
	}
	before := len(s.current.Elements)
	s.current.Elements = slices.DeleteFunc(s.current.Elements, func(el script.Element) bool {
		return el.ElementID() != script.MetaID && slices.Contains(ids, el.ElementID())
	})
	fmt.Fprintf(s.output, "  Removed %d character(s)\n", before-len(s.current.Elements))
	s.check()
}

func (s *Session) handleShow() {
	data, err := json.MarshalIndent(s.current, "", "  ")
	if err != nil {
		fmt.Fprintf(s.output, "  Error marshaling script: %v\n", err)
		return
	}
	fmt.Fprintln(s.output, string(data))
}

func (s *Session) handleSort() {
	s.current = s.sorter.Sort(s.current)
	for i, id := range s.current.IDs() {
		name := id
		if c, ok := s.current.Lookup(s.base).Character(id); ok {
			name = c.DisplayName()
		}
		fmt.Fprintf(s.output, "  %2d. %s\n", i+1, name)
	}
}

func (s *Session) handleExplain() {
	lines := s.sorter.ExplainScript(s.sorter.Sort(s.current))
	if len(lines) == 0 {
		fmt.Fprintln(s.output, "  Nothing to explain.")
		return
	}
	for _, l := range lines {
		fmt.Fprintf(s.output, "  %s\n", l)
	}
}

func (s *Session) handleRules() {
	v := s.validator
	if s.order {
		v = s.ordered
	}
	for _, r := range v.Rules() {
		fmt.Fprintf(s.output, "  %-32s %s\n", r.ID, r.Label)
	}
}

func (s *Session) handleHelp() {
	fmt.Fprintln(s.output, "Paste script JSON to check it. A blank line ends a paste.")
	fmt.Fprintln(s.output, "Commands:")
	fmt.Fprintln(s.output, "  :add <id>...      Add characters and re-check")
	fmt.Fprintln(s.output, "  :remove <id>...   Remove characters and re-check")
	fmt.Fprintln(s.output, "  :show             Print the current script as JSON")
	fmt.Fprintln(s.output, "  :sort             Sort the current script into display order")
	fmt.Fprintln(s.output, "  :explain          Explain the display order")
	fmt.Fprintln(s.output, "  :order            Toggle the script order check")
	fmt.Fprintln(s.output, "  :rules            List the rules that run")
	fmt.Fprintln(s.output, "  :clear            Start a new script")
	fmt.Fprintln(s.output, "  :help             Show this help")
	fmt.Fprintln(s.output, "  :quit             Exit")
}
