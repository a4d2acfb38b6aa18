package sorter

import (
	"reflect"
	"strings"
	"testing"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
)

func TestSortByTeam(t *testing.T) {
	s := script.FromIDs("Type Order Test", "imp", "washerwoman", "butler", "poisoner")
	sorted := Sort(s)
	if _, ok := sorted.Elements[0].(*script.Metadata); !ok {
		t.Fatalf("metadata should stay first, got %T", sorted.Elements[0])
	}
	want := []string{"washerwoman", "butler", "poisoner", "imp"}
	if got := sorted.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sort = %v, want %v", got, want)
	}
	if !reflect.DeepEqual(s.IDs(), []string{"imp", "washerwoman", "butler", "poisoner"}) {
		t.Error("Sort must not modify its input")
	}
}

func TestSortByPatternAndLength(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"pattern group", []string{"monk", "chef", "slayer"}, []string{"chef", "monk", "slayer"}},
		{"ability length", []string{"librarian", "washerwoman"}, []string{"washerwoman", "librarian"}},
		{"each night before each night star", []string{"imp", "poisoner"}, []string{"poisoner", "imp"}},
		{
			"trouble brewing",
			[]string{"imp", "baron", "spy", "mayor", "virgin", "soldier", "washerwoman", "saint", "drunk", "chef", "monk"},
			[]string{"chef", "washerwoman", "monk", "soldier", "mayor", "virgin", "drunk", "saint", "spy", "baron", "imp"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sort(script.FromIDs("", tt.in...)).IDs()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Sort(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPatternPriorityLongestMatch(t *testing.T) {
	tests := []struct {
		ability string
		want    string
	}{
		{"Once per game, during the day, publicly choose a player.", "Once per game, during the day"},
		{"On your 1st night, learn something.", "On your 1st night"},
		{"Once per game, do a thing.", "Once per game"},
		{"Each night*, choose a player.", "Each night*"},
		{"Each night, choose a player.", "Each night"},
		{`If you are "mad" about something.`, `If you are "mad"`},
		{"You are safe from the Demon.", "You are"},
	}
	for _, tt := range tests {
		got := PatternPriority(tt.ability)
		if got >= len(Patterns) || Patterns[got] != tt.want {
			t.Errorf("PatternPriority(%q) matched index %d, want %q", tt.ability, got, tt.want)
		}
	}
	if got := PatternPriority("Nothing matches this."); got != len(Patterns) {
		t.Errorf("unmatched ability priority = %d, want %d", got, len(Patterns))
	}
}

func TestUnknownCharactersSortLast(t *testing.T) {
	got := Sort(script.FromIDs("", "zzz", "imp", "aaa", "chef")).IDs()
	want := []string{"chef", "imp", "aaa", "zzz"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Sort = %v, want %v", got, want)
	}
}

func TestSortInlineCharacters(t *testing.T) {
	s, err := script.Parse([]byte(`[
		"imp",
		{"id":"hobgoblin","name":"Hobgoblin","team":"outsider","ability":"You are a hobgoblin."},
		"chef"
	]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sorted := Sort(s)
	want := []string{"chef", "hobgoblin", "imp"}
	if got := sorted.IDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sort = %v, want %v", got, want)
	}
	if _, ok := sorted.Elements[1].(*script.InlineCharacter); !ok {
		t.Errorf("inline element should be preserved, got %T", sorted.Elements[1])
	}
}

func TestTieBreakers(t *testing.T) {
	base := kb.New(map[string]kb.Character{
		"aa":  {Name: "Bee", Team: kb.TeamTownsfolk, Ability: "You are fine."},
		"bb":  {Name: "Ant", Team: kb.TeamTownsfolk, Ability: "You are fine."},
		"cc":  {Name: "Cicada", Team: kb.TeamTownsfolk, Ability: "You are fine."},
		"out": {Name: "Out", Team: kb.TeamOutsider, Ability: "You are fine."},
	}, nil)
	s := New(base)

	got := s.SortIDs([]string{"out", "cc", "aa", "bb"})
	want := []string{"bb", "aa", "cc", "out"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SortIDs = %v, want %v", got, want)
	}

	explanations := s.Explain(got)
	wantExplain := []string{
		"Ant comes before Bee alphabetically.",
		"Bee comes before Cicada because its name is shorter (3 vs 6 characters).",
		"Cicada comes before Out because townsfolk comes before outsider in type order.",
	}
	if !reflect.DeepEqual(explanations, wantExplain) {
		t.Errorf("Explain =\n%s\nwant\n%s", strings.Join(explanations, "\n"), strings.Join(wantExplain, "\n"))
	}
}

func TestExplainDefaultKnowledgeBase(t *testing.T) {
	got := Explain([]string{"chef", "monk", "washerwoman", "librarian", "notacharacter", "imp"})
	want := []string{
		`Chef comes before Monk because "You start knowing..." pattern has higher priority.`,
		`Monk comes before Washerwoman because "Each night*, choose..." pattern has higher priority.`,
		"Washerwoman comes before Librarian because its ability text is shorter (64 vs 96 characters).",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Explain =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestInOrder(t *testing.T) {
	if !InOrder(script.FromIDs("", "washerwoman", "butler", "poisoner", "imp")) {
		t.Error("sorted script reported out of order")
	}
	if InOrder(script.FromIDs("", "imp", "washerwoman")) {
		t.Error("unsorted script reported in order")
	}
	if !InOrder(script.FromIDs("Empty")) {
		t.Error("empty script should be in order")
	}

	before, after, found := New(kb.Default()).FirstMisordered(script.FromIDs("", "washerwoman", "imp", "butler"))
	if !found || before != "imp" || after != "butler" {
		t.Errorf("FirstMisordered = %q, %q, %v", before, after, found)
	}
}

func TestSortIsIdempotent(t *testing.T) {
	s := script.FromIDs("x", "saint", "imp", "chef", "spy", "virgin", "drunk")
	once := Sort(s)
	twice := Sort(once)
	if !reflect.DeepEqual(once.IDs(), twice.IDs()) {
		t.Errorf("Sort not idempotent: %v vs %v", once.IDs(), twice.IDs())
	}
	if !InOrder(once) {
		t.Error("sorted output should be in order")
	}
}
