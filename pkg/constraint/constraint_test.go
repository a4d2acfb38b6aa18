package constraint

import (
	"testing"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
)

func TestCount(t *testing.T) {
	look := kb.Default()
	ids := []string{"poisoner", "spy", "recluse", "chef", "drunk", "imp", "notacharacter"}

	tests := []struct {
		name string
		spec kb.TagSpec
		want int
	}{
		{"single tag list", kb.Tags("causes-droisoning"), 2},
		{"tag union", kb.Tags("causes-droisoning", "causes-misregistration"), 4},
		{"no match", kb.Tags("resurrection"), 0},
		{"team", kb.Ref("minion"), 2},
		{"team outsider", kb.Ref("outsider"), 2},
		{"legacy team spelling", kb.Ref("travellers"), 0},
		{"present id", kb.Ref("chef"), 1},
		{"absent id", kb.Ref("empath"), 0},
		{"unknown id present", kb.Ref("notacharacter"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Count(ids, tt.spec, look); got != tt.want {
				t.Errorf("Count(%s) = %d, want %d", tt.spec, got, tt.want)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		count int
		op    kb.Operator
		value int
		want  bool
	}{
		{1, kb.OpEqual, 1, true},
		{2, kb.OpEqual, 1, false},
		{0, kb.OpLess, 1, true},
		{1, kb.OpLess, 1, false},
		{1, kb.OpLessEqual, 1, true},
		{2, kb.OpGreater, 1, true},
		{1, kb.OpGreater, 1, false},
		{1, kb.OpGreaterEqual, 1, true},
		{1, kb.Operator("!="), 2, false},
		{1, kb.Operator(""), 1, false},
	}
	for _, tt := range tests {
		if got := Compare(tt.count, tt.op, tt.value); got != tt.want {
			t.Errorf("Compare(%d %s %d) = %v, want %v", tt.count, tt.op, tt.value, got, tt.want)
		}
	}
}

func TestEvaluateIgnoresUnknownCharacters(t *testing.T) {
	c := kb.Constraint{Tag: kb.Ref("outsider"), Operator: kb.OpGreaterEqual, Value: 1}
	if Evaluate([]string{"chef", "hobgoblin"}, c, kb.Default()) {
		t.Error("unknown characters should not count towards a team")
	}
	tagged := kb.Constraint{Tag: kb.Tags("resurrection"), Operator: kb.OpGreater, Value: 0}
	if Evaluate([]string{"hobgoblin", "notachar"}, tagged, kb.Default()) {
		t.Error("unknown characters should not count towards a tag")
	}
}
