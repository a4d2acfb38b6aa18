package kb

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func testdataDir(t *testing.T, parts ...string) string {
	t.Helper()
	_, file, _, _ := runtime.Caller(0)
	repoRoot := filepath.Join(filepath.Dir(file), "..", "..")
	dir := filepath.Join(append([]string{repoRoot, "testdata"}, parts...)...)
	if _, err := os.Stat(dir); err != nil {
		t.Skipf("testdata directory not found: %s", dir)
	}
	return dir
}

func TestEmbeddedLoads(t *testing.T) {
	kb, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	if got := len(kb.IDs()); got < 150 {
		t.Errorf("expected at least 150 characters, got %d", got)
	}
	if len(kb.IDs()) != len(kb.ConsiderationIDs()) {
		t.Errorf("characters (%d) and considerations (%d) differ", len(kb.IDs()), len(kb.ConsiderationIDs()))
	}
}

func TestEmbeddedLintHasNoErrors(t *testing.T) {
	_, errs := LintEmbedded()
	for _, e := range errs {
		if e.Severity == "error" {
			t.Errorf("unexpected lint error: %v", e)
		}
	}
}

func TestDefaultLookups(t *testing.T) {
	kb := Default()
	tests := []struct {
		id   string
		team Team
		tag  string
	}{
		{"poisoner", TeamMinion, "causes-droisoning"},
		{"spy", TeamMinion, "causes-misregistration"},
		{"monk", TeamTownsfolk, "prevents-demon-kills"},
		{"legion", TeamDemon, ""},
		{"fibbin", TeamFabled, ""},
		{"scapegoat", TeamTraveller, ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			c, ok := kb.Character(tt.id)
			if !ok {
				t.Fatalf("character %q not found", tt.id)
			}
			if c.ID != tt.id {
				t.Errorf("ID = %q, want %q", c.ID, tt.id)
			}
			if c.Team != tt.team {
				t.Errorf("team = %q, want %q", c.Team, tt.team)
			}
			if tt.tag == "" {
				return
			}
			cons, ok := kb.Considerations(tt.id)
			if !ok {
				t.Fatalf("considerations for %q not found", tt.id)
			}
			if !cons.HasTag(tt.tag) {
				t.Errorf("%q missing tag %q: %v", tt.id, tt.tag, cons.Tags)
			}
		})
	}

	if _, ok := kb.Character("notacharacter"); ok {
		t.Error("expected miss for unknown character")
	}
}

func TestSetupDecoding(t *testing.T) {
	kb := Default()
	baron, _ := kb.Considerations("baron")
	if baron.Setup.Outsiders == nil || baron.Setup.Outsiders.Arbitrary || len(baron.Setup.Outsiders.Deltas) != 1 || baron.Setup.Outsiders.Deltas[0] != 2 {
		t.Errorf("baron outsiders = %+v, want [2]", baron.Setup.Outsiders)
	}
	godfather, _ := kb.Considerations("godfather")
	if godfather.Setup.Outsiders == nil || godfather.Setup.Outsiders.String() != "-1/+1" {
		t.Errorf("godfather outsiders = %v, want -1/+1", godfather.Setup.Outsiders)
	}
	washer, _ := kb.Considerations("washerwoman")
	if washer.Setup.ModifiesSetup() {
		t.Error("washerwoman should not modify setup")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	chars := strings.NewReader("chef:\n  name: Chef\n  team: townsfolk\n  ability: x\n  colour: red\n")
	cons := strings.NewReader("chef:\n  tags: []\n  jinxes: []\n")
	_, err := Load(chars, cons)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), CharactersFile) {
		t.Errorf("error should name the file, got: %v", err)
	}
}

func TestLoadRejectsBadSeverity(t *testing.T) {
	chars := strings.NewReader("chef:\n  name: Chef\n  team: townsfolk\n  ability: x\n")
	cons := strings.NewReader(`chef:
  tags: []
  jinxes: []
  suggestions:
    - tag: ["x"]
      operator: ">"
      value: 1
      severity: critical
      message: m
`)
	if _, err := Load(chars, cons); err == nil {
		t.Fatal("expected error for unknown severity")
	}
}

func TestTagSpecDecoding(t *testing.T) {
	chars := strings.NewReader("chef:\n  name: Chef\n  team: townsfolk\n  ability: x\n")
	cons := strings.NewReader(`chef:
  tags: []
  jinxes: []
  requirements:
    - tag: outsider
      operator: ">="
      value: 1
      severity: high
      message: single
    - tag: ["a", "b"]
      operator: "=="
      value: 0
      severity: low
      message: list
`)
	kb, err := Load(chars, cons)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, _ := kb.Considerations("chef")
	if len(c.Requirements) != 2 {
		t.Fatalf("expected 2 requirements, got %d", len(c.Requirements))
	}
	if c.Requirements[0].Tag.List || c.Requirements[0].Tag.Single() != "outsider" {
		t.Errorf("first tag = %+v, want single outsider", c.Requirements[0].Tag)
	}
	if !c.Requirements[1].Tag.List || len(c.Requirements[1].Tag.Values) != 2 {
		t.Errorf("second tag = %+v, want list of 2", c.Requirements[1].Tag)
	}
	if c.Requirements[0].Severity != SeverityHigh {
		t.Errorf("severity = %v, want high", c.Requirements[0].Severity)
	}
	data, err := json.Marshal(c.Requirements[1])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"tag":["a","b"]`) || !strings.Contains(string(data), `"severity":"low"`) {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestParseTeam(t *testing.T) {
	tests := []struct {
		in   string
		want Team
		ok   bool
	}{
		{"townsfolk", TeamTownsfolk, true},
		{"Outsider", TeamOutsider, true},
		{"travellers", TeamTraveller, true},
		{"traveller", TeamTraveller, true},
		{"fabled", TeamFabled, true},
		{"loric", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseTeam(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseTeam(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if TeamTownsfolk.Rank() >= TeamFabled.Rank() || Team("loric").Rank() != len(Teams) {
		t.Error("unexpected team ranks")
	}
}

func TestSeverityOrdering(t *testing.T) {
	if !(SeverityLow < SeverityMedium && SeverityMedium < SeverityHigh) {
		t.Fatal("severities must be ordered low < medium < high")
	}
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh} {
		parsed, err := ParseSeverity(s.String())
		if err != nil || parsed != s {
			t.Errorf("ParseSeverity(%q) = %v, %v", s.String(), parsed, err)
		}
	}
	if _, err := Severity(9).MarshalText(); err == nil {
		t.Error("expected error marshalling invalid severity")
	}
}

func TestWithCharactersOverlay(t *testing.T) {
	base := Default()
	custom := Character{ID: "hobgoblin", Name: "Hobgoblin", Team: TeamMinion, Ability: "Each night, choose a player."}
	shadow := Character{ID: "chef", Name: "Cook", Team: TeamOutsider}
	look := WithCharacters(base, custom, shadow)

	if c, ok := look.Character("hobgoblin"); !ok || c.Team != TeamMinion {
		t.Errorf("overlay character = %+v, %v", c, ok)
	}
	if c, _ := look.Character("chef"); c.Name != "Cook" {
		t.Errorf("inline definition should shadow base, got %q", c.Name)
	}
	if _, ok := look.Considerations("hobgoblin"); ok {
		t.Error("overlay characters have no considerations")
	}
	if _, ok := look.Considerations("chef"); !ok {
		t.Error("considerations should come from the base")
	}
	if WithCharacters(base) != Lookup(base) {
		t.Error("empty overlay should return the base")
	}
}

func TestLintBrokenKnowledgeBase(t *testing.T) {
	dir := testdataDir(t, "kb", "broken")
	kb, errs := LintDir(dir)
	if kb == nil {
		t.Fatalf("structural phase should pass, got: %v", errs)
	}
	if !HasErrors(errs) {
		t.Fatal("expected lint errors")
	}

	want := []struct {
		phase, severity, fragment string
	}{
		{"domain", "error", `"spy" has considerations but no entry`},
		{"domain", "warning", `"imp" has no considerations`},
		{"domain", "warning", `unknown jinx partner "nobody"`},
		{"domain", "error", "clashes with itself"},
		{"domain", "error", `unsupported operator "!="`},
		{"domain", "warning", `"ghost" is neither a team nor a known character`},
		{"semantic", "error", ""},
	}
	for _, w := range want {
		found := false
		for _, e := range errs {
			if e.Phase == w.phase && e.Severity == w.severity && strings.Contains(e.Message, w.fragment) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing %s %s containing %q in: %v", w.phase, w.severity, w.fragment, errs)
		}
	}
}

func TestLintStructuralFailure(t *testing.T) {
	_, errs := Lint([]byte("chef: [not, a, mapping]\n"), []byte("{}\n"))
	if len(errs) != 1 || errs[0].Phase != "structural" || errs[0].File != CharactersFile {
		t.Fatalf("expected a single structural error for %s, got: %v", CharactersFile, errs)
	}
}

func TestGenerateSchemas(t *testing.T) {
	for name, gen := range map[string]func() ([]byte, error){
		"characters":     GenerateCharactersJSONSchema,
		"considerations": GenerateConsiderationsJSONSchema,
	} {
		t.Run(name, func(t *testing.T) {
			data, err := gen()
			if err != nil {
				t.Fatalf("generate: %v", err)
			}
			var doc map[string]any
			if err := json.Unmarshal(data, &doc); err != nil {
				t.Fatalf("schema is not valid JSON: %v", err)
			}
			if _, ok := doc["$id"]; !ok {
				t.Error("schema missing $id")
			}
		})
	}
}

func TestKnownTags(t *testing.T) {
	tags := Default().KnownTags()
	for _, want := range []string{"causes-droisoning", "resurrection", "extra-evil", "shy-outsider", "prevents-execution"} {
		found := false
		for _, tag := range tags {
			if tag == want {
				found = true
			}
		}
		if !found {
			t.Errorf("tag %q not found in knowledge base", want)
		}
	}
}
