// Package constraint evaluates knowledge base counting constraints against
// the characters of a script.
package constraint

import (
	"github.com/ormasoftchile/scriptcheck/pkg/kb"
)

// Count returns the number of script characters matching the constraint's
// subject:
//   - a tag list counts characters carrying any of the tags;
//   - a team name counts characters of that team;
//   - anything else is a character ID and counts 1 if present.
//
// Characters the lookup does not know contribute nothing to tag or team
// counts.
func Count(ids []string, spec kb.TagSpec, look kb.Lookup) int {
	if spec.List {
		n := 0
		for _, id := range ids {
			if cons, ok := look.Considerations(id); ok && cons.HasAnyTag(spec.Values...) {
				n++
			}
		}
		return n
	}

	subject := spec.Single()
	if team, ok := kb.ParseTeam(subject); ok {
		n := 0
		for _, id := range ids {
			if c, ok := look.Character(id); ok && c.Team == team {
				n++
			}
		}
		return n
	}

	for _, id := range ids {
		if id == subject {
			return 1
		}
	}
	return 0
}

// Compare applies op to count and value. Unsupported operators are false.
func Compare(count int, op kb.Operator, value int) bool {
	switch op {
	case kb.OpEqual:
		return count == value
	case kb.OpLess:
		return count < value
	case kb.OpLessEqual:
		return count <= value
	case kb.OpGreater:
		return count > value
	case kb.OpGreaterEqual:
		return count >= value
	}
	return false
}

// Evaluate reports whether the script satisfies c.
func Evaluate(ids []string, c kb.Constraint, look kb.Lookup) bool {
	return Compare(Count(ids, c.Tag, look), c.Operator, c.Value)
}
