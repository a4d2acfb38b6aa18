package validate

import (
	"fmt"
	"slices"

	"github.com/ormasoftchile/scriptcheck/pkg/constraint"
	"github.com/ormasoftchile/scriptcheck/pkg/kb"
)

// Thresholds.
const (
	maxMisinformation      = 6
	minMisinformation      = 3
	maxConfirmationChain   = 6
	maxProtectionImbalance = 2
)

// Characters that are overpowered alongside Legion. The second list is only
// overpowered when no Vortox-like effect is present, but both are flagged.
var (
	legionOverpowered              = []string{"slayer", "snakecharmer"}
	legionOverpoweredWithoutVortox = []string{"artist", "chambermaid", "fortuneteller", "chef", "empath", "juggler", "knight", "noble", "oracle", "undertaker"}
)

// builtinChecks returns the built-in checks in run order.
func builtinChecks() []Check {
	return []Check{
		{RuleMisinfo, "Misinformation", checkMisinformation},
		{RuleSingleResurrection, "Resurrection", checkSingleResurrection},
		{RuleSingleExtraDeath, "Extra Death", checkSingleExtraDeath},
		{RuleConfirmationChain, "Confirmation Chain", checkConfirmationChain},
		{RuleCharacterClash, "Character Clash", checkCharacterClashes},
		{RuleOutsiderModification, "Outsider Modification", checkOutsiderModification},
		{RuleExtraEvil, "Extra Evil Players", checkExtraEvil},
		{RuleLegion, "Legion Clashes", checkLegion},
		{RuleOnlyGoodExecutionProtection, "Only Good Execution Protection", checkOnlyGoodExecutionProtection},
		{RuleRequirements, "Character Requirement Not Met", checkRequirements},
		{RuleSuggestions, "Character Suggestion", checkSuggestions},
		{RuleTooMuchProtection, "Too Much Protection", checkTooMuchProtection},
		{RuleScriptOrder, "Script Order", checkScriptOrder},
	}
}

// ---------------------------------------------------------------------------
// Input helpers
// ---------------------------------------------------------------------------

// Tagged returns the script characters carrying any of tags, in script order.
func (in *Input) Tagged(tags ...string) []string {
	var out []string
	for _, id := range in.IDs {
		if c, ok := in.Look.Considerations(id); ok && c.HasAnyTag(tags...) {
			out = append(out, id)
		}
	}
	return out
}

// Has reports whether the script contains id.
func (in *Input) Has(id string) bool {
	return slices.Contains(in.IDs, id)
}

// Team returns the team of id; false when the character is unknown.
func (in *Input) Team(id string) (kb.Team, bool) {
	c, ok := in.Look.Character(id)
	if !ok {
		return "", false
	}
	return c.Team, true
}

// OfTeam returns the script characters of team, in script order.
func (in *Input) OfTeam(team kb.Team) []string {
	var out []string
	for _, id := range in.IDs {
		if t, ok := in.Team(id); ok && t == team {
			out = append(out, id)
		}
	}
	return out
}

// isOnlyDemon reports whether id is a demon and the script's only one.
func (in *Input) isOnlyDemon(id string) bool {
	t, ok := in.Team(id)
	return ok && t == kb.TeamDemon && len(in.OfTeam(kb.TeamDemon)) == 1
}

// ---------------------------------------------------------------------------
// Checks
// ---------------------------------------------------------------------------

func checkMisinformation(in *Input) []Finding {
	chars := in.Tagged("causes-droisoning", "causes-misregistration")
	n := len(chars)

	if n > maxMisinformation {
		return []Finding{{
			Severity:   kb.SeverityMedium,
			RuleID:     RuleMisinfo,
			Message:    fmt.Sprintf("There are %d sources of misinformation on this script. Consider removing some of them.", n),
			Characters: chars,
		}}
	}
	if n < minMisinformation && !in.Has("fibbin") {
		there := fmt.Sprintf("are %d sources", n)
		if n == 1 {
			there = "is only 1 source"
		}
		return []Finding{{
			Severity:   kb.SeverityLow,
			RuleID:     RuleMisinfo,
			Message:    fmt.Sprintf("There %s of misinformation on this script. Consider adding more, or using the Fibbin fabled.", there),
			Characters: chars,
		}}
	}
	return nil
}

func checkSingleResurrection(in *Input) []Finding {
	chars := in.Tagged("resurrection")
	if len(chars) != 1 || in.isOnlyDemon(chars[0]) {
		return nil
	}
	return []Finding{{
		Severity:   kb.SeverityMedium,
		RuleID:     RuleSingleResurrection,
		Message:    "There is only 1 source of resurrection on this script. Consider adding more resurrection sources to avoid hard-confirming characters.",
		Characters: chars,
	}}
}

func checkSingleExtraDeath(in *Input) []Finding {
	chars := in.Tagged("extra-death")
	if len(chars) != 1 || in.isOnlyDemon(chars[0]) {
		return nil
	}
	return []Finding{{
		Severity:   kb.SeverityMedium,
		RuleID:     RuleSingleExtraDeath,
		Message:    "There is only 1 source of extra death at night on this script. Consider adding more extra death sources to avoid hard-confirming characters.",
		Characters: chars,
	}}
}

func checkConfirmationChain(in *Input) []Finding {
	chars := in.Tagged("self-confirming", "character-confirmation")
	if len(chars) <= maxConfirmationChain {
		return nil
	}
	return []Finding{{
		Severity:   kb.SeverityMedium,
		RuleID:     RuleConfirmationChain,
		Message:    fmt.Sprintf("There are %d characters that can confirm themselves or each other. Consider reducing this to avoid long confirmation chains.", len(chars)),
		Characters: chars,
	}}
}

// pair is an unordered pair of character IDs with a < b.
type pair struct{ a, b string }

func newPair(x, y string) pair {
	if y < x {
		x, y = y, x
	}
	return pair{x, y}
}

func checkCharacterClashes(in *Input) []Finding {
	var findings []Finding
	seen := map[pair]struct{}{}
	for _, id := range in.IDs {
		cons, ok := in.Look.Considerations(id)
		if !ok {
			continue
		}
		for _, clash := range cons.Clashes {
			for _, other := range clash.Characters {
				if !in.Has(other) {
					continue
				}
				key := newPair(id, other)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				findings = append(findings, Finding{
					Severity:   clash.Severity,
					RuleID:     RuleCharacterClash,
					Message:    clash.Reason,
					Characters: []string{id, other},
				})
			}
		}
	}
	return findings
}

func checkOutsiderModification(in *Input) []Finding {
	var modifiers []string
	for _, id := range in.IDs {
		if cons, ok := in.Look.Considerations(id); ok && cons.Setup.Outsiders != nil {
			modifiers = append(modifiers, id)
		}
	}

	var msg string
	switch {
	case len(modifiers) == 0:
		msg = "Without any outsider modification, the evil team will struggle to bluff outsiders."
	case len(modifiers) == 1 && isTeam(in, modifiers[0], kb.TeamDemon):
		msg = "If only the demon modifies the outsider count, it will be easy for the good team to deduce which demon is in play."
	case len(modifiers) == 1 && len(in.Tagged("shy-outsider")) == 0:
		msg = "If there is only one source of outsider modification, consider including more shy outsiders to hide this (eg. Mutant, Sweetheart, Barber)."
	default:
		return nil
	}
	return []Finding{{
		Severity:   kb.SeverityMedium,
		RuleID:     RuleOutsiderModification,
		Message:    msg,
		Characters: modifiers,
	}}
}

func isTeam(in *Input, id string, team kb.Team) bool {
	t, ok := in.Team(id)
	return ok && t == team
}

func checkExtraEvil(in *Input) []Finding {
	if in.Has("spiritofivory") {
		return nil
	}
	chars := in.Tagged("extra-evil")
	switch {
	case len(chars) >= 3:
		return []Finding{{
			Severity:   kb.SeverityHigh,
			RuleID:     RuleExtraEvil,
			Message:    fmt.Sprintf("There are %d characters that can add extra evil players. This is unbalanced in favor of evil. Consider adding the Spirit of Ivory to prevent this.", len(chars)),
			Characters: chars,
		}}
	case len(chars) == 2:
		return []Finding{{
			Severity:   kb.SeverityMedium,
			RuleID:     RuleExtraEvil,
			Message:    fmt.Sprintf("There are %d characters that can add extra evil players. This may make the game unbalanced in favor of evil, consider adding the Spirit of Ivory to prevent this.", len(chars)),
			Characters: chars,
		}}
	}
	return nil
}

func checkLegion(in *Input) []Finding {
	if !in.Has("legion") {
		return nil
	}
	var flagged []string
	for _, list := range [][]string{legionOverpowered, legionOverpoweredWithoutVortox} {
		for _, id := range in.IDs {
			if slices.Contains(list, id) {
				flagged = append(flagged, id)
			}
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	return []Finding{{
		Severity:   kb.SeverityHigh,
		RuleID:     RuleLegion,
		Message:    "These characters are overpowered in Legion scripts. Consider removing these characters.",
		Characters: append([]string{"legion"}, flagged...),
	}}
}

func checkOnlyGoodExecutionProtection(in *Input) []Finding {
	protection := in.Tagged("prevents-execution")
	good := 0
	for _, id := range protection {
		if t, ok := in.Team(id); ok && t.Good() {
			good++
		}
	}
	// The Boffin can hand a demon good execution protection.
	if good > 0 && in.Has("boffin") {
		protection = append(protection, "boffin")
	}
	if len(protection) == 0 || len(protection) != good {
		return nil
	}
	return []Finding{{
		Severity:   kb.SeverityMedium,
		RuleID:     RuleOnlyGoodExecutionProtection,
		Message:    "All sources of execution protection are good-aligned, meaning that these characters can be hard-confirmed. Consider adding evil-aligned execution protection (eg. Devil's Advocate, Lleech, or Boffin).",
		Characters: protection,
	}}
}

func checkRequirements(in *Input) []Finding {
	return checkConstraints(in, RuleRequirements, func(c kb.Considerations) []kb.Constraint { return c.Requirements })
}

func checkSuggestions(in *Input) []Finding {
	return checkConstraints(in, RuleSuggestions, func(c kb.Considerations) []kb.Constraint { return c.Suggestions })
}

// checkConstraints emits one finding per character and failing constraint.
func checkConstraints(in *Input, rule RuleID, pick func(kb.Considerations) []kb.Constraint) []Finding {
	var findings []Finding
	for _, id := range in.IDs {
		cons, ok := in.Look.Considerations(id)
		if !ok {
			continue
		}
		for _, c := range pick(cons) {
			if constraint.Evaluate(in.IDs, c, in.Look) {
				continue
			}
			findings = append(findings, Finding{
				Severity:   c.Severity,
				RuleID:     rule,
				Message:    c.Message,
				Characters: []string{id},
			})
		}
	}
	return findings
}

func checkTooMuchProtection(in *Input) []Finding {
	protection := in.Tagged("prevents-demon-kills", "prevents-night-death")
	deaths := in.Tagged("extra-death", "extra-kill")
	if len(protection)-len(deaths) <= maxProtectionImbalance {
		return nil
	}
	return []Finding{{
		Severity:   kb.SeverityMedium,
		RuleID:     RuleTooMuchProtection,
		Message:    fmt.Sprintf("There are %d sources of protection but only %d sources of extra death on this script. Consider adding more extra death or removing some protection.", len(protection), len(deaths)),
		Characters: protection,
	}}
}

func checkScriptOrder(in *Input) []Finding {
	before, after, found := in.sorter.FirstMisordered(in.Script)
	if !found {
		return nil
	}
	return []Finding{{
		Severity: kb.SeverityLow,
		RuleID:   RuleScriptOrder,
		Message: fmt.Sprintf("The script is not in the correct sort order. %s should come after %s.",
			displayName(in.Names, before), displayName(in.Names, after)),
		Characters: []string{},
	}}
}

func displayName(look kb.Lookup, id string) string {
	if c, ok := look.Character(id); ok {
		return c.DisplayName()
	}
	return id
}
