package script

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document for
// script files.
func GenerateJSONSchema() ([]byte, error) {
	r := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true, AllowAdditionalProperties: true}
	meta := r.Reflect(&Metadata{})
	char := r.Reflect(&InlineCharacter{})

	defs := jsonschema.Definitions{}
	for name, d := range meta.Definitions {
		defs[name] = d
	}
	for name, d := range char.Definitions {
		defs[name] = d
	}
	// Pin the metadata ID.
	if m, ok := defs["Metadata"]; ok {
		m.Properties.Set("id", &jsonschema.Schema{Const: MetaID})
		m.Required = append([]string{"id"}, m.Required...)
	}

	reference := &jsonschema.Schema{
		Type:        "string",
		Description: "official character ID",
	}
	legacy := &jsonschema.Schema{
		Type:        "object",
		Description: "legacy official character reference",
		Properties:  jsonschema.NewProperties(),
		Required:    []string{"id"},
	}
	legacy.Properties.Set("id", &jsonschema.Schema{Type: "string"})

	s := &jsonschema.Schema{
		Version:     jsonschema.Version,
		ID:          "https://github.com/ormasoftchile/scriptcheck/schemas/script.json",
		Title:       "Custom script",
		Description: "Ordered list of character IDs, inline characters and at most one _meta element",
		Type:        "array",
		Items: &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{
				reference,
				{Ref: "#/$defs/Metadata"},
				{Ref: "#/$defs/InlineCharacter"},
				legacy,
			},
		},
		Definitions: defs,
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal script schema: %w", err)
	}
	return data, nil
}
