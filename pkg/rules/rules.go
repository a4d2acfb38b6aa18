// Package rules compiles user-defined checks written as expr-lang
// expressions.
//
// A rule fires when its "when" expression is true. Expressions see the
// script through these names:
//
//	ids                 character IDs in script order
//	title               script name from metadata
//	has(id)             whether the script contains id
//	count(tag...)       characters carrying any of the tags
//	tagged(tag...)      those characters, in script order
//	team(name)          characters of a team ("outsider", "demon", ...)
//	teamOf(id)          team of one character, or ""
//
// Example:
//
//	rules:
//	  - id: vortox-needs-misinfo
//	    when: has("vortox") && count("causes-droisoning") < 3
//	    severity: medium
//	    message: The Vortox wants more droisoning to hide behind.
//	    characters: '["vortox"]'
package rules

import (
	"fmt"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ormasoftchile/scriptcheck/pkg/constraint"
	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

// Rule is a user-defined check.
type Rule struct {
	ID         string      `yaml:"id"                   json:"id"                   validate:"required"`
	Label      string      `yaml:"label,omitempty"      json:"label,omitempty"`
	When       string      `yaml:"when"                 json:"when"                 validate:"required"`
	Severity   kb.Severity `yaml:"severity,omitempty"   json:"severity,omitempty"`
	Message    string      `yaml:"message"              json:"message"              validate:"required"`
	Characters string      `yaml:"characters,omitempty" json:"characters,omitempty"`
}

// env builds the expression environment for one script.
func env(ids []string, title string, look kb.Lookup) map[string]any {
	return map[string]any{
		"ids":   ids,
		"title": title,
		"has": func(id string) bool {
			return slices.Contains(ids, id)
		},
		"count": func(tags ...string) int {
			return constraint.Count(ids, kb.Tags(tags...), look)
		},
		"tagged": func(tags ...string) []string {
			var out []string
			for _, id := range ids {
				if c, ok := look.Considerations(id); ok && c.HasAnyTag(tags...) {
					out = append(out, id)
				}
			}
			return out
		},
		"team": func(name string) int {
			if _, ok := kb.ParseTeam(name); !ok {
				return 0
			}
			return constraint.Count(ids, kb.Ref(name), look)
		},
		"teamOf": func(id string) string {
			if c, ok := look.Character(id); ok {
				return string(c.Team)
			}
			return ""
		},
	}
}

// compiled is a rule with its programs.
type compiled struct {
	Rule
	when  *vm.Program
	chars *vm.Program
}

// Compile type-checks rules and returns them as validator checks.
func Compile(rules []Rule) ([]validate.Check, error) {
	sample := env(nil, "", kb.New(nil, nil))
	seen := map[string]bool{}
	checks := make([]validate.Check, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.ID) == "" {
			return nil, fmt.Errorf("rules[%d]: id is required", i)
		}
		if validate.Label(validate.RuleID(r.ID)) != r.ID {
			return nil, fmt.Errorf("rule %q: id collides with a built-in rule", r.ID)
		}
		if seen[r.ID] {
			return nil, fmt.Errorf("rule %q: duplicate id", r.ID)
		}
		seen[r.ID] = true

		c := compiled{Rule: r}
		if c.Severity == 0 {
			c.Severity = kb.SeverityMedium
		}
		if c.Label == "" {
			c.Label = r.ID
		}
		var err error
		c.when, err = expr.Compile(r.When, expr.Env(sample), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("rule %q: compile when %q: %w", r.ID, r.When, err)
		}
		if r.Characters != "" {
			c.chars, err = expr.Compile(r.Characters, expr.Env(sample))
			if err != nil {
				return nil, fmt.Errorf("rule %q: compile characters %q: %w", r.ID, r.Characters, err)
			}
		}
		checks = append(checks, validate.Check{
			ID:    validate.RuleID(r.ID),
			Label: c.Label,
			Run:   c.run,
		})
	}
	return checks, nil
}

func (c compiled) run(in *validate.Input) []validate.Finding {
	e := env(in.IDs, in.Script.Title(), in.Look)
	out, err := expr.Run(c.when, e)
	if err != nil {
		return []validate.Finding{c.failure(fmt.Errorf("eval when: %w", err))}
	}
	if fired, _ := out.(bool); !fired {
		return nil
	}

	f := validate.Finding{
		Severity:   c.Severity,
		RuleID:     validate.RuleID(c.ID),
		Message:    c.Message,
		Characters: []string{},
	}
	if c.chars != nil {
		v, err := expr.Run(c.chars, e)
		if err != nil {
			return []validate.Finding{c.failure(fmt.Errorf("eval characters: %w", err))}
		}
		chars, err := toStrings(v)
		if err != nil {
			return []validate.Finding{c.failure(err)}
		}
		f.Characters = chars
	}
	return []validate.Finding{f}
}

// failure reports a rule that could not be evaluated as a low finding.
func (c compiled) failure(err error) validate.Finding {
	return validate.Finding{
		Severity:   kb.SeverityLow,
		RuleID:     validate.RuleID(c.ID),
		Message:    fmt.Sprintf("Rule %q could not be evaluated: %v", c.ID, err),
		Characters: []string{},
	}
}

func toStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return t, nil
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			s, ok := x.(string)
			if !ok {
				return nil, fmt.Errorf("characters: expected strings, got %T", x)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("characters: expected a list of IDs, got %T", v)
}
