package kb

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// CharacterTable is the shape of characters.yaml.
type CharacterTable map[string]Character

// ConsiderationTable is the shape of considerations.yaml.
type ConsiderationTable map[string]Considerations

// Schema IDs, also used as resource names when compiling for lint.
const (
	CharactersSchemaID     = "https://github.com/ormasoftchile/scriptcheck/schemas/characters.json"
	ConsiderationsSchemaID = "https://github.com/ormasoftchile/scriptcheck/schemas/considerations.json"
)

func reflector() *jsonschema.Reflector {
	// Only fields tagged jsonschema:"required" are required.
	return &jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
}

// GenerateCharactersJSONSchema produces a JSON Schema Draft 2020-12 document
// for characters.yaml.
func GenerateCharactersJSONSchema() ([]byte, error) {
	s := characterSchema()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal characters schema: %w", err)
	}
	return data, nil
}

// GenerateConsiderationsJSONSchema produces a JSON Schema Draft 2020-12
// document for considerations.yaml.
func GenerateConsiderationsJSONSchema() ([]byte, error) {
	s := considerationsSchema()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal considerations schema: %w", err)
	}
	return data, nil
}

func characterSchema() *jsonschema.Schema {
	s := reflector().Reflect(CharacterTable{})
	s.ID = CharactersSchemaID
	s.Title = "Character reference data"
	s.Description = "Map of character ID to display name, team and ability text"
	return s
}

func considerationsSchema() *jsonschema.Schema {
	s := reflector().Reflect(ConsiderationTable{})
	s.ID = ConsiderationsSchemaID
	s.Title = "Character considerations"
	s.Description = "Map of character ID to tags, jinxes, constraints, setup effects and clashes"
	return s
}
