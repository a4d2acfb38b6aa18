// Package sorter orders script characters for display.
//
// Characters are ordered by team, then by the opening phrase of their
// ability text, then by ability length, then by name length, then by name.
// Characters the knowledge base does not know follow the known ones,
// ordered by ID. Metadata always comes first.
package sorter

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
)

// Patterns lists ability opening phrases in priority order.
var Patterns = []string{
	"You start knowing",
	"At night",
	"Each dusk*",
	"Each dusk",
	"Each night",
	"Each night*",
	"Each day",
	"Once per game, at night",
	"Once per game, at night*",
	"Once per game, during the day",
	"Once per game",
	"On your 1st night",
	"On your 1st day",
	"On",

	"You think",
	"You are",
	"You have",
	"You do not know",
	"You might",
	"You",

	"When you die",
	"When you learn that you died",
	"When",

	"If you die",
	"If you died",
	`If you are "mad"`,
	"If you",
	"If the Demon dies",
	"If the Demon kills",
	"If the Demon",
	"If both",
	"If there are 5 or more players alive",
	"If",

	"All players",
	"All",

	"The 1st time",
	"The",

	"Good",
	"Evil",
	"Players",
	"Minions",
}

// byLength holds indexes into Patterns, longest pattern first, so that a
// short prefix such as "On" never shadows "Once per game".
var byLength = func() []int {
	idx := make([]int, len(Patterns))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return len(Patterns[b]) - len(Patterns[a])
	})
	return idx
}()

// PatternPriority returns the index in Patterns of the longest phrase the
// ability starts with, or len(Patterns) when none matches.
func PatternPriority(ability string) int {
	for _, i := range byLength {
		if strings.HasPrefix(ability, Patterns[i]) {
			return i
		}
	}
	return len(Patterns)
}

// Sorter orders characters using a knowledge base lookup.
type Sorter struct {
	look kb.Lookup
}

// New creates a Sorter over look.
func New(look kb.Lookup) *Sorter {
	return &Sorter{look: look}
}

func defaultSorter() *Sorter { return New(kb.Default()) }

// Sort returns a copy of s in display order using the embedded knowledge base.
func Sort(s *script.Script) *script.Script { return defaultSorter().Sort(s) }

// Explain describes each adjacent pair of ids using the embedded knowledge base.
func Explain(ids []string) []string { return defaultSorter().Explain(ids) }

// InOrder reports whether s is already in display order using the embedded
// knowledge base.
func InOrder(s *script.Script) bool { return defaultSorter().InOrder(s) }

// comparer compares character IDs. A comparer owns a collator and must not
// be shared between goroutines.
type comparer struct {
	look kb.Lookup
	coll *collate.Collator
}

func (s *Sorter) comparer(sc *script.Script) *comparer {
	look := s.look
	if sc != nil {
		look = sc.Lookup(look)
	}
	return &comparer{look: look, coll: collate.New(language.English)}
}

func (c *comparer) compare(a, b string) int {
	ca, okA := c.look.Character(a)
	cb, okB := c.look.Character(b)
	switch {
	case !okA && !okB:
		return c.coll.CompareString(a, b)
	case !okA:
		return 1
	case !okB:
		return -1
	}

	if d := ca.Team.Rank() - cb.Team.Rank(); d != 0 {
		return d
	}
	if d := PatternPriority(ca.Ability) - PatternPriority(cb.Ability); d != 0 {
		return d
	}
	if d := textLen(ca.Ability) - textLen(cb.Ability); d != 0 {
		return d
	}
	if d := textLen(ca.Name) - textLen(cb.Name); d != 0 {
		return d
	}
	return c.coll.CompareString(ca.Name, cb.Name)
}

func textLen(s string) int { return utf8.RuneCountInString(s) }

// Sort returns a copy of sc in display order. Metadata is pinned first and
// the relative order of equal characters is preserved.
func (s *Sorter) Sort(sc *script.Script) *script.Script {
	c := s.comparer(sc)
	var meta, chars []script.Element
	for _, el := range sc.Elements {
		if _, ok := el.(*script.Metadata); ok {
			meta = append(meta, el)
			continue
		}
		chars = append(chars, el)
	}
	slices.SortStableFunc(chars, func(a, b script.Element) int {
		return c.compare(a.ElementID(), b.ElementID())
	})
	return script.New(append(meta, chars...)...)
}

// SortIDs returns ids in display order.
func (s *Sorter) SortIDs(ids []string) []string {
	c := s.comparer(nil)
	out := slices.Clone(ids)
	slices.SortStableFunc(out, c.compare)
	return out
}

// InOrder reports whether the characters of sc are already in display order.
func (s *Sorter) InOrder(sc *script.Script) bool {
	_, _, bad := s.FirstMisordered(sc)
	return !bad
}

// FirstMisordered returns the first adjacent pair of characters in sc that
// is out of display order.
func (s *Sorter) FirstMisordered(sc *script.Script) (before, after string, found bool) {
	c := s.comparer(sc)
	ids := sc.IDs()
	for i := 0; i+1 < len(ids); i++ {
		if c.compare(ids[i], ids[i+1]) > 0 {
			return ids[i], ids[i+1], true
		}
	}
	return "", "", false
}

// Explain returns one sentence per adjacent pair of ids saying why the
// first comes before the second. Pairs involving unknown characters are
// skipped.
func (s *Sorter) Explain(ids []string) []string {
	var out []string
	for i := 0; i+1 < len(ids); i++ {
		a, okA := s.look.Character(ids[i])
		b, okB := s.look.Character(ids[i+1])
		if !okA || !okB {
			continue
		}
		out = append(out, explain(a, b))
	}
	return out
}

// ExplainScript is Explain over the characters of sc, with inline
// characters taken into account.
func (s *Sorter) ExplainScript(sc *script.Script) []string {
	return New(sc.Lookup(s.look)).Explain(sc.IDs())
}

func explain(a, b kb.Character) string {
	lead := fmt.Sprintf("%s comes before %s", a.DisplayName(), b.DisplayName())
	if a.Team.Rank() != b.Team.Rank() {
		return fmt.Sprintf("%s because %s comes before %s in type order.", lead, a.Team, b.Team)
	}
	if PatternPriority(a.Ability) != PatternPriority(b.Ability) {
		words := strings.Split(a.Ability, " ")
		if len(words) > 3 {
			words = words[:3]
		}
		return fmt.Sprintf("%s because \"%s...\" pattern has higher priority.", lead, strings.Join(words, " "))
	}
	if la, lb := textLen(a.Ability), textLen(b.Ability); la != lb {
		return fmt.Sprintf("%s because its ability text is shorter (%d vs %d characters).", lead, la, lb)
	}
	if la, lb := textLen(a.Name), textLen(b.Name); la != lb {
		return fmt.Sprintf("%s because its name is shorter (%d vs %d characters).", lead, la, lb)
	}
	return lead + " alphabetically."
}
