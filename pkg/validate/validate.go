// Package validate runs the script checks and ranks their findings.
//
// Each check is independent: it reads the script's character IDs and the
// knowledge base and returns zero or more findings. The validator runs the
// checks in a fixed order, flattens the results and stable-sorts them by
// severity, highest first.
package validate

import (
	"slices"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
	"github.com/ormasoftchile/scriptcheck/pkg/sorter"
)

// RuleID identifies the check that produced a finding.
type RuleID string

const (
	RuleMisinfo                     RuleID = "misinfo"
	RuleSingleResurrection          RuleID = "single-resurrection"
	RuleSingleExtraDeath            RuleID = "single-extra-death"
	RuleConfirmationChain           RuleID = "confirmation-chain"
	RuleCharacterClash              RuleID = "character-clash"
	RuleOutsiderModification        RuleID = "outsider-modification"
	RuleExtraEvil                   RuleID = "extra-evil"
	RuleLegion                      RuleID = "legion"
	RuleOnlyGoodExecutionProtection RuleID = "only-good-execution-protection"
	RuleRequirements                RuleID = "requirements"
	RuleSuggestions                 RuleID = "suggestions"
	RuleTooMuchProtection           RuleID = "too-much-protection"
	RuleScriptOrder                 RuleID = "script-order"
)

// Finding is a single potential design issue.
type Finding struct {
	Severity   kb.Severity `json:"severity"`
	RuleID     RuleID      `json:"id"`
	Message    string      `json:"message"`
	Characters []string    `json:"characters"`
}

// Rule pairs a rule ID with its human-readable label.
type Rule struct {
	ID    RuleID `json:"id"`
	Label string `json:"label"`
}

// Check is one independent rule.
type Check struct {
	ID    RuleID
	Label string
	Run   func(in *Input) []Finding
}

// Input is what every check sees. It is shared read-only across checks.
type Input struct {
	// IDs are the script's character IDs in script order, metadata excluded.
	IDs []string
	// Look is the knowledge base. Characters it does not know, inline
	// definitions included, take no part in tag or team counts.
	Look kb.Lookup
	// Names also resolves the script's inline characters, for messages.
	Names  kb.Lookup
	Script *script.Script
	sorter *sorter.Sorter
}

// Options configures a Validator.
type Options struct {
	// Disable lists rule IDs that are skipped.
	Disable []RuleID
	// ScriptOrder enables the script-order check.
	ScriptOrder bool
	// Extra checks run after the built-in ones.
	Extra []Check
}

// Validator runs a fixed set of checks against a knowledge base. It is
// immutable after construction and safe for concurrent use.
type Validator struct {
	look   kb.Lookup
	checks []Check
	sorter *sorter.Sorter
}

// New creates a Validator over look.
func New(look kb.Lookup, opts Options) *Validator {
	v := &Validator{look: look, sorter: sorter.New(look)}
	for _, c := range builtinChecks() {
		if c.ID == RuleScriptOrder && !opts.ScriptOrder {
			continue
		}
		if slices.Contains(opts.Disable, c.ID) {
			continue
		}
		v.checks = append(v.checks, c)
	}
	for _, c := range opts.Extra {
		if slices.Contains(opts.Disable, c.ID) {
			continue
		}
		v.checks = append(v.checks, c)
	}
	return v
}

// ValidateScript validates s against the embedded knowledge base with the
// default checks.
func ValidateScript(s *script.Script) []Finding {
	return New(kb.Default(), Options{}).Validate(s)
}

// Validate runs every enabled check and returns the findings ordered by
// severity, highest first. Findings of equal severity keep check order.
// A script without characters has no findings.
func (v *Validator) Validate(s *script.Script) []Finding {
	findings := []Finding{}
	in := &Input{
		IDs:    s.IDs(),
		Look:   v.look,
		Names:  s.Lookup(v.look),
		Script: s,
		sorter: v.sorter,
	}
	if len(in.IDs) == 0 {
		return findings
	}
	for _, c := range v.checks {
		for _, f := range c.Run(in) {
			if f.Characters == nil {
				f.Characters = []string{}
			}
			findings = append(findings, f)
		}
	}
	slices.SortStableFunc(findings, func(a, b Finding) int {
		return int(b.Severity) - int(a.Severity)
	})
	return findings
}

// Rules lists the rules this validator runs, in run order.
func (v *Validator) Rules() []Rule {
	rules := make([]Rule, 0, len(v.checks))
	for _, c := range v.checks {
		rules = append(rules, Rule{ID: c.ID, Label: c.Label})
	}
	return rules
}

// Label returns the rule label for id, as known to this validator.
func (v *Validator) Label(id RuleID) string {
	for _, c := range v.checks {
		if c.ID == id {
			return c.Label
		}
	}
	return Label(id)
}

// Labels lists every built-in rule with its label, in run order.
func Labels() []Rule {
	checks := builtinChecks()
	rules := make([]Rule, 0, len(checks))
	for _, c := range checks {
		rules = append(rules, Rule{ID: c.ID, Label: c.Label})
	}
	return rules
}

// Label returns the label of a built-in rule, or the ID itself when the
// rule is not built in.
func Label(id RuleID) string {
	for _, c := range builtinChecks() {
		if c.ID == id {
			return c.Label
		}
	}
	return string(id)
}

// Filter returns the findings at or above floor.
func Filter(findings []Finding, floor kb.Severity) []Finding {
	out := make([]Finding, 0, len(findings))
	for _, f := range findings {
		if f.Severity >= floor {
			out = append(out, f)
		}
	}
	return out
}

// MaxSeverity returns the highest severity among findings, or 0.
func MaxSeverity(findings []Finding) kb.Severity {
	var top kb.Severity
	for _, f := range findings {
		if f.Severity > top {
			top = f.Severity
		}
	}
	return top
}
