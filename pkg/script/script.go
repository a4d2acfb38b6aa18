// Package script models a custom script: an ordered list of character
// selections with at most one metadata element.
//
// A script document is a JSON array whose elements are one of:
//
//	"washerwoman"                          official character reference
//	{"id": "washerwoman"}                  legacy reference
//	{"id": "_meta", "name": "...", ...}    script metadata
//	{"id": "x", "name": "...", "team": ...} inline (homebrew) character
package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
)

// MetaID is the reserved element ID for script metadata.
const MetaID = "_meta"

var (
	// ErrNotList is returned when the document is not a JSON array.
	ErrNotList = errors.New("script must be a JSON array")
	// ErrBadElement is returned for an element that is not a string or an
	// object with a string "id".
	ErrBadElement = errors.New("invalid script element")
)

// ---------------------------------------------------------------------------
// Elements
// ---------------------------------------------------------------------------

// Element is one entry of a script: a Reference, an InlineCharacter or
// Metadata.
type Element interface {
	// ElementID returns the element's ID; MetaID for metadata.
	ElementID() string
	isElement()
}

// Reference selects an official character by ID.
type Reference struct {
	ID string
	// Legacy is set when the reference was written as {"id": "..."}.
	Legacy bool
}

func (r Reference) ElementID() string { return r.ID }
func (Reference) isElement()          {}

// InlineCharacter is a character defined in the script itself.
type InlineCharacter struct {
	ID      string  `json:"id"      jsonschema:"required"`
	Name    string  `json:"name"    jsonschema:"required"`
	Team    kb.Team `json:"team"    jsonschema:"required"`
	Ability string  `json:"ability" jsonschema:"required"`

	Image              any      `json:"image,omitempty"`
	Edition            string   `json:"edition,omitempty"`
	Flavor             string   `json:"flavor,omitempty"`
	FirstNight         float64  `json:"firstNight,omitempty"`
	FirstNightReminder string   `json:"firstNightReminder,omitempty"`
	OtherNight         float64  `json:"otherNight,omitempty"`
	OtherNightReminder string   `json:"otherNightReminder,omitempty"`
	Reminders          []string `json:"reminders,omitempty"`
	RemindersGlobal    []string `json:"remindersGlobal,omitempty"`
	Setup              bool     `json:"setup,omitempty"`
	Jinxes             []Jinx   `json:"jinxes,omitempty"`
	Special            []any    `json:"special,omitempty"`

	// raw is the source object, re-emitted verbatim.
	raw json.RawMessage
}

func (c *InlineCharacter) ElementID() string { return c.ID }
func (*InlineCharacter) isElement()          {}

// Character converts the inline definition to knowledge base reference data.
func (c *InlineCharacter) Character() kb.Character {
	return kb.Character{ID: c.ID, Name: c.Name, Team: c.Team, Ability: c.Ability}
}

// Jinx is an inline character's jinx with another character.
type Jinx struct {
	ID     string `json:"id"     jsonschema:"required"`
	Reason string `json:"reason" jsonschema:"required"`
}

// Metadata is the script's "_meta" element. Unknown fields are preserved
// in Extra.
type Metadata struct {
	Name       string   `json:"name"                 jsonschema:"required"`
	Author     string   `json:"author,omitempty"`
	Logo       string   `json:"logo,omitempty"`
	HideTitle  bool     `json:"hideTitle,omitempty"`
	Background string   `json:"background,omitempty"`
	Almanac    string   `json:"almanac,omitempty"`
	Bootlegger []string `json:"bootlegger,omitempty"`
	FirstNight []string `json:"firstNight,omitempty"`
	OtherNight []string `json:"otherNight,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

func (*Metadata) ElementID() string { return MetaID }
func (*Metadata) isElement()        {}

// ---------------------------------------------------------------------------
// Script
// ---------------------------------------------------------------------------

// Script is an ordered list of elements.
type Script struct {
	Elements []Element
}

// New builds a script from elements.
func New(elems ...Element) *Script {
	return &Script{Elements: elems}
}

// FromIDs builds a script of official character references, optionally
// preceded by metadata named title.
func FromIDs(title string, ids ...string) *Script {
	s := &Script{}
	if title != "" {
		s.Elements = append(s.Elements, &Metadata{Name: title})
	}
	for _, id := range ids {
		s.Elements = append(s.Elements, Reference{ID: id})
	}
	return s
}

// IDs returns the character IDs in script order, excluding metadata.
func (s *Script) IDs() []string {
	ids := make([]string, 0, len(s.Elements))
	for _, el := range s.Elements {
		if _, ok := el.(*Metadata); ok {
			continue
		}
		ids = append(ids, el.ElementID())
	}
	return ids
}

// Meta returns the metadata element, if any.
func (s *Script) Meta() (*Metadata, bool) {
	for _, el := range s.Elements {
		if m, ok := el.(*Metadata); ok {
			return m, true
		}
	}
	return nil, false
}

// Title returns the script name from metadata, or "".
func (s *Script) Title() string {
	if m, ok := s.Meta(); ok {
		return m.Name
	}
	return ""
}

// Inline returns the inline character definitions as reference data.
func (s *Script) Inline() []kb.Character {
	var out []kb.Character
	for _, el := range s.Elements {
		if c, ok := el.(*InlineCharacter); ok {
			out = append(out, c.Character())
		}
	}
	return out
}

// Lookup layers the script's inline characters over base.
func (s *Script) Lookup(base kb.Lookup) kb.Lookup {
	return kb.WithCharacters(base, s.Inline()...)
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseReader reads and parses a script document.
func ParseReader(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes a script document. Parsing is best effort: unknown fields
// and unknown teams are accepted, but every element must carry an ID.
func Parse(data []byte) (*Script, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		if json.Valid(data) {
			return nil, ErrNotList
		}
		return nil, fmt.Errorf("decode script: %w", syntaxError(data))
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}

	s := &Script{Elements: make([]Element, 0, len(raw))}
	seenMeta := false
	for i, r := range raw {
		el, err := parseElement(r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		if _, ok := el.(*Metadata); ok {
			if seenMeta {
				return nil, fmt.Errorf("element %d: %w: more than one %q element", i, ErrBadElement, MetaID)
			}
			seenMeta = true
		}
		s.Elements = append(s.Elements, el)
	}
	return s, nil
}

func syntaxError(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return ErrNotList
}

func parseElement(r json.RawMessage) (Element, error) {
	r = bytes.TrimSpace(r)
	if len(r) == 0 {
		return nil, ErrBadElement
	}
	switch r[0] {
	case '"':
		var id string
		if err := json.Unmarshal(r, &id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadElement, err)
		}
		if id == "" {
			return nil, fmt.Errorf("%w: empty character ID", ErrBadElement)
		}
		if id == MetaID {
			return nil, fmt.Errorf("%w: %q must be an object", ErrBadElement, MetaID)
		}
		return Reference{ID: id}, nil
	case '{':
		return parseObject(r)
	}
	return nil, fmt.Errorf("%w: expected a string or an object", ErrBadElement)
}

func parseObject(r json.RawMessage) (Element, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadElement, err)
	}
	var id string
	if err := json.Unmarshal(fields["id"], &id); err != nil || id == "" {
		return nil, fmt.Errorf("%w: object without a string \"id\"", ErrBadElement)
	}

	if id == MetaID {
		m := &Metadata{}
		if err := json.Unmarshal(r, m); err != nil {
			return nil, fmt.Errorf("%w: metadata: %v", ErrBadElement, err)
		}
		for _, known := range metadataFields {
			delete(fields, known)
		}
		if len(fields) > 0 {
			m.Extra = fields
		}
		return m, nil
	}

	if !isInline(fields) {
		return Reference{ID: id, Legacy: true}, nil
	}

	c := &InlineCharacter{raw: append(json.RawMessage(nil), r...)}
	if err := json.Unmarshal(r, c); err != nil {
		return nil, fmt.Errorf("%w: character %q: %v", ErrBadElement, id, err)
	}
	return c, nil
}

var metadataFields = []string{"id", "name", "author", "logo", "hideTitle", "background", "almanac", "bootlegger", "firstNight", "otherNight"}

// isInline reports whether an object defines a character rather than
// referencing one.
func isInline(fields map[string]json.RawMessage) bool {
	for _, k := range []string{"name", "team", "ability"} {
		if _, ok := fields[k]; ok {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// MarshalJSON emits the script in its document form.
func (s *Script) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, 0, len(s.Elements))
	for i, el := range s.Elements {
		b, err := marshalElement(el)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, b)
	}
	return json.Marshal(out)
}

func marshalElement(el Element) ([]byte, error) {
	switch e := el.(type) {
	case Reference:
		if e.Legacy {
			return json.Marshal(map[string]string{"id": e.ID})
		}
		return json.Marshal(e.ID)
	case *InlineCharacter:
		if len(e.raw) > 0 {
			return e.raw, nil
		}
		type plain InlineCharacter
		return json.Marshal((*plain)(e))
	case *Metadata:
		type plain Metadata
		b, err := json.Marshal((*plain)(e))
		if err != nil {
			return nil, err
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(b, &fields); err != nil {
			return nil, err
		}
		for k, v := range e.Extra {
			fields[k] = v
		}
		fields["id"] = json.RawMessage(`"` + MetaID + `"`)
		return json.Marshal(fields)
	}
	return nil, fmt.Errorf("unknown element type %T", el)
}
