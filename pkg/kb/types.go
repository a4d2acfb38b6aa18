// Package kb defines the character knowledge base: per-character reference
// data (team, ability text, display name) and the "considerations" the
// script checks reason about (tags, jinxes, constraints, setup effects,
// clashes).
package kb

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Team
// ---------------------------------------------------------------------------

// Team is the character type. Its declaration order is the display order.
type Team string

const (
	TeamTownsfolk Team = "townsfolk"
	TeamOutsider  Team = "outsider"
	TeamMinion    Team = "minion"
	TeamDemon     Team = "demon"
	TeamTraveller Team = "traveller"
	TeamFabled    Team = "fabled"
)

// Teams lists every team in display order.
var Teams = []Team{TeamTownsfolk, TeamOutsider, TeamMinion, TeamDemon, TeamTraveller, TeamFabled}

// ParseTeam resolves a team name. The legacy plural "travellers" is accepted.
func ParseTeam(s string) (Team, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "travellers" {
		return TeamTraveller, true
	}
	t := Team(s)
	if slices.Contains(Teams, t) {
		return t, true
	}
	return "", false
}

// Rank returns the display-order position of the team; unknown teams sort last.
func (t Team) Rank() int {
	if i := slices.Index(Teams, t); i >= 0 {
		return i
	}
	return len(Teams)
}

// Good reports whether the team is good-aligned by default.
func (t Team) Good() bool {
	return t == TeamTownsfolk || t == TeamOutsider
}

func (t *Team) UnmarshalYAML(node *yaml.Node) error {
	parsed, ok := ParseTeam(node.Value)
	if !ok {
		return fmt.Errorf("line %d: unknown team %q", node.Line, node.Value)
	}
	*t = parsed
	return nil
}

// UnmarshalJSON normalizes known spellings. Unknown teams are kept as
// written and rank last.
func (t *Team) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if parsed, ok := ParseTeam(s); ok {
		*t = parsed
		return nil
	}
	*t = Team(s)
	return nil
}

func (Team) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(Teams))
	for _, t := range Teams {
		enum = append(enum, string(t))
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// ---------------------------------------------------------------------------
// Severity
// ---------------------------------------------------------------------------

// Severity ranks how serious a finding is. Higher values are more severe.
type Severity int

const (
	SeverityLow Severity = iota + 1
	SeverityMedium
	SeverityHigh
)

var severityNames = map[Severity]string{
	SeverityLow:    "low",
	SeverityMedium: "medium",
	SeverityHigh:   "high",
}

// ParseSeverity resolves "low", "medium" or "high".
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	}
	return 0, fmt.Errorf("unknown severity %q: must be low, medium, or high", s)
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

func (s Severity) MarshalText() ([]byte, error) {
	if _, ok := severityNames[s]; !ok {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s *Severity) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseSeverity(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

func (Severity) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Enum: []any{"low", "medium", "high"}}
}

// ---------------------------------------------------------------------------
// Character
// ---------------------------------------------------------------------------

// Character is the reference data for one character.
type Character struct {
	ID      string `yaml:"-"       json:"id"`
	Name    string `yaml:"name"    json:"name"    jsonschema:"required"`
	Team    Team   `yaml:"team"    json:"team"    jsonschema:"required"`
	Ability string `yaml:"ability" json:"ability" jsonschema:"required"`
}

// DisplayName returns the character name, falling back to its ID.
func (c Character) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// ---------------------------------------------------------------------------
// Considerations
// ---------------------------------------------------------------------------

// Considerations holds everything the checks know about one character.
type Considerations struct {
	Tags         []string     `yaml:"tags"                   json:"tags"`
	Jinxes       []string     `yaml:"jinxes"                 json:"jinxes"`
	Requirements []Constraint `yaml:"requirements,omitempty" json:"requirements,omitempty"`
	Suggestions  []Constraint `yaml:"suggestions,omitempty"  json:"suggestions,omitempty"`
	Setup        Setup        `yaml:"setup,omitempty"        json:"setup,omitempty"`
	Clashes      []Clash      `yaml:"clashes,omitempty"      json:"clashes,omitempty"`
}

// HasTag reports whether the character carries tag.
func (c Considerations) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// HasAnyTag reports whether the character carries at least one of tags.
func (c Considerations) HasAnyTag(tags ...string) bool {
	for _, t := range tags {
		if c.HasTag(t) {
			return true
		}
	}
	return false
}

// Constraint is a counting rule: the number of script characters matching
// Tag, compared against Value with Operator.
type Constraint struct {
	Tag      TagSpec  `yaml:"tag"      json:"tag"      jsonschema:"required"`
	Operator Operator `yaml:"operator" json:"operator" jsonschema:"required"`
	Value    int      `yaml:"value"    json:"value"`
	Message  string   `yaml:"message"  json:"message"  jsonschema:"required"`
	Severity Severity `yaml:"severity" json:"severity" jsonschema:"required"`
}

// Operator is a comparison operator used by a Constraint.
type Operator string

const (
	OpEqual        Operator = "=="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
)

// Operators lists the supported comparison operators.
var Operators = []Operator{OpEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual}

// Valid reports whether the operator is supported.
func (o Operator) Valid() bool {
	return slices.Contains(Operators, o)
}

func (Operator) JSONSchema() *jsonschema.Schema {
	enum := make([]any, 0, len(Operators))
	for _, o := range Operators {
		enum = append(enum, string(o))
	}
	return &jsonschema.Schema{Type: "string", Enum: enum}
}

// TagSpec is the subject of a Constraint. A list is a set of tags matched
// with OR; a single value is a team name or a literal character ID.
type TagSpec struct {
	Values []string
	List   bool
}

// Tags builds a list TagSpec.
func Tags(tags ...string) TagSpec {
	return TagSpec{Values: tags, List: true}
}

// Ref builds a single-value TagSpec naming a team or character.
func Ref(v string) TagSpec {
	return TagSpec{Values: []string{v}}
}

// Single returns the value of a non-list spec.
func (t TagSpec) Single() string {
	if len(t.Values) == 0 {
		return ""
	}
	return t.Values[0]
}

func (t TagSpec) String() string {
	if t.List {
		return "[" + strings.Join(t.Values, ", ") + "]"
	}
	return t.Single()
}

func (t *TagSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = Ref(node.Value)
		return nil
	case yaml.SequenceNode:
		var vals []string
		if err := node.Decode(&vals); err != nil {
			return err
		}
		*t = Tags(vals...)
		return nil
	}
	return fmt.Errorf("line %d: tag must be a string or a list of strings", node.Line)
}

func (t TagSpec) MarshalYAML() (any, error) {
	if t.List {
		return t.Values, nil
	}
	return t.Single(), nil
}

func (t TagSpec) MarshalJSON() ([]byte, error) {
	if t.List {
		return json.Marshal(t.Values)
	}
	return json.Marshal(t.Single())
}

func (TagSpec) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Description: "team name or character ID"},
			{Type: "array", Items: &jsonschema.Schema{Type: "string"}, Description: "tags, any of which matches"},
		},
	}
}

// Clash is a known-bad interaction that has no official jinx.
type Clash struct {
	Characters []string `yaml:"characters" json:"characters" jsonschema:"required"`
	Reason     string   `yaml:"reason"     json:"reason"     jsonschema:"required"`
	Severity   Severity `yaml:"severity"   json:"severity"   jsonschema:"required"`
}

// ---------------------------------------------------------------------------
// Setup
// ---------------------------------------------------------------------------

// Setup records how a character changes the per-team counts at setup.
type Setup struct {
	Outsiders *SetupDelta `yaml:"outsiders,omitempty" json:"outsiders,omitempty"`
	Townsfolk *SetupDelta `yaml:"townsfolk,omitempty" json:"townsfolk,omitempty"`
	Minions   *SetupDelta `yaml:"minions,omitempty"   json:"minions,omitempty"`
	Demons    *SetupDelta `yaml:"demons,omitempty"    json:"demons,omitempty"`
}

// ModifiesSetup reports whether any count is changed.
func (s Setup) ModifiesSetup() bool {
	return s.Outsiders != nil || s.Townsfolk != nil || s.Minions != nil || s.Demons != nil
}

// SetupDelta is a list of possible count changes, or Arbitrary when the
// change is unbounded.
type SetupDelta struct {
	Arbitrary bool
	Deltas    []int
}

const arbitrary = "arbitrary"

func (d *SetupDelta) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Value != arbitrary {
			return fmt.Errorf("line %d: setup delta must be a list of integers or %q", node.Line, arbitrary)
		}
		*d = SetupDelta{Arbitrary: true}
		return nil
	case yaml.SequenceNode:
		var deltas []int
		if err := node.Decode(&deltas); err != nil {
			return err
		}
		*d = SetupDelta{Deltas: deltas}
		return nil
	}
	return fmt.Errorf("line %d: setup delta must be a list of integers or %q", node.Line, arbitrary)
}

func (d SetupDelta) MarshalJSON() ([]byte, error) {
	if d.Arbitrary {
		return json.Marshal(arbitrary)
	}
	return json.Marshal(d.Deltas)
}

func (SetupDelta) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string", Enum: []any{arbitrary}},
			{Type: "array", Items: &jsonschema.Schema{Type: "integer"}},
		},
	}
}

func (d SetupDelta) String() string {
	if d.Arbitrary {
		return arbitrary
	}
	parts := make([]string, len(d.Deltas))
	for i, n := range d.Deltas {
		parts[i] = fmt.Sprintf("%+d", n)
	}
	return strings.Join(parts, "/")
}
