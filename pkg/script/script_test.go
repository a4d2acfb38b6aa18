package script

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
)

func TestParseMixedElements(t *testing.T) {
	doc := `[
		{"id": "_meta", "name": "Trouble Brewing-ish", "author": "sam", "colour": "red"},
		"washerwoman",
		{"id": "librarian"},
		{"id": "hobgoblin", "name": "Hobgoblin", "team": "minion", "ability": "Each night, choose a player."},
		"imp"
	]`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got, want := s.IDs(), []string{"washerwoman", "librarian", "hobgoblin", "imp"}; !reflect.DeepEqual(got, want) {
		t.Errorf("IDs = %v, want %v", got, want)
	}
	if s.Title() != "Trouble Brewing-ish" {
		t.Errorf("Title = %q", s.Title())
	}
	m, _ := s.Meta()
	if m.Author != "sam" {
		t.Errorf("Author = %q", m.Author)
	}
	if _, ok := m.Extra["colour"]; !ok {
		t.Error("unknown metadata fields should be preserved")
	}

	if ref, ok := s.Elements[2].(Reference); !ok || !ref.Legacy {
		t.Errorf("element 2 = %#v, want legacy reference", s.Elements[2])
	}
	inline, ok := s.Elements[3].(*InlineCharacter)
	if !ok {
		t.Fatalf("element 3 = %T, want *InlineCharacter", s.Elements[3])
	}
	if inline.Team != kb.TeamMinion {
		t.Errorf("inline team = %q", inline.Team)
	}
	if got := s.Inline(); len(got) != 1 || got[0].ID != "hobgoblin" {
		t.Errorf("Inline = %+v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"object document", `{"id": "washerwoman"}`, ErrNotList},
		{"number element", `["chef", 3]`, ErrBadElement},
		{"object without id", `[{"name": "x"}]`, ErrBadElement},
		{"empty id", `[""]`, ErrBadElement},
		{"string meta", `["_meta"]`, ErrBadElement},
		{"two metas", `[{"id":"_meta","name":"a"},{"id":"_meta","name":"b"}]`, ErrBadElement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("Parse(%s) error = %v, want %v", tt.doc, err, tt.want)
			}
		})
	}

	if _, err := Parse([]byte(`[`)); err == nil {
		t.Error("expected syntax error")
	}
	if _, err := Parse(nil); err == nil {
		t.Error("expected error for empty input")
	}
}

func TestParseEmptyAndMetaOnly(t *testing.T) {
	s, err := Parse([]byte(`[]`))
	if err != nil || len(s.IDs()) != 0 {
		t.Fatalf("empty script: %v, %v", s, err)
	}
	s, err = ParseReader(strings.NewReader(`[{"id":"_meta","name":"Nothing"}]`))
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	if len(s.IDs()) != 0 || s.Title() != "Nothing" {
		t.Errorf("IDs = %v, Title = %q", s.IDs(), s.Title())
	}
}

func TestLegacyTravellerSpelling(t *testing.T) {
	s, err := Parse([]byte(`[{"id":"wanderer","name":"Wanderer","team":"travellers","ability":"x"}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if c := s.Inline()[0]; c.Team != kb.TeamTraveller {
		t.Errorf("team = %q, want traveller", c.Team)
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	doc := `[{"id":"_meta","name":"Mine","colour":"red"},"chef",{"id":"empath"},{"id":"x","name":"X","team":"outsider","ability":"y","flavor":"z"}]`
	s, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got, want any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("re-decode: %v", err)
	}
	if err := json.Unmarshal([]byte(doc), &want); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", out, doc)
	}
}

func TestFromIDs(t *testing.T) {
	s := FromIDs("T", "chef", "imp")
	if s.Title() != "T" || !reflect.DeepEqual(s.IDs(), []string{"chef", "imp"}) {
		t.Errorf("FromIDs = %+v", s)
	}
	if FromIDs("", "chef").Title() != "" {
		t.Error("no title expected")
	}
}

func TestLookupOverlay(t *testing.T) {
	s, _ := Parse([]byte(`["chef",{"id":"hobgoblin","name":"Hobgoblin","team":"demon","ability":"x"}]`))
	look := s.Lookup(kb.Default())
	if c, ok := look.Character("hobgoblin"); !ok || c.Team != kb.TeamDemon {
		t.Errorf("overlay lookup = %+v, %v", c, ok)
	}
	if _, ok := look.Character("chef"); !ok {
		t.Error("base lookup should still work")
	}
}

func TestGenerateJSONSchema(t *testing.T) {
	data, err := GenerateJSONSchema()
	if err != nil {
		t.Fatalf("GenerateJSONSchema: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	if doc["type"] != "array" {
		t.Errorf("type = %v, want array", doc["type"])
	}
	if !strings.Contains(string(data), `"_meta"`) {
		t.Error("schema should pin the metadata ID")
	}
}
