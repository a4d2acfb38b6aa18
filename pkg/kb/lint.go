package kb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// ValidationError is a single knowledge base problem with location context.
type ValidationError struct {
	Phase    string `json:"phase"` // structural, semantic, domain
	File     string `json:"file"`  // characters.yaml or considerations.yaml
	Path     string `json:"path"`  // e.g. "acrobat.requirements[0].operator"
	Message  string `json:"message"`
	Severity string `json:"severity"` // error, warning
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s: %s", e.Phase, e.File, e.Message)
	}
	return fmt.Sprintf("[%s] %s %s: %s", e.Phase, e.File, e.Path, e.Message)
}

func errorf(phase, file, path, msg string, args ...any) *ValidationError {
	return &ValidationError{Phase: phase, File: file, Path: path, Message: fmt.Sprintf(msg, args...), Severity: "error"}
}

func warningf(phase, file, path, msg string, args ...any) *ValidationError {
	return &ValidationError{Phase: phase, File: file, Path: path, Message: fmt.Sprintf(msg, args...), Severity: "warning"}
}

// HasErrors reports whether any entry has error severity.
func HasErrors(errs []*ValidationError) bool {
	for _, e := range errs {
		if e.Severity == "error" {
			return true
		}
	}
	return false
}

// LintDir runs the full lint pipeline over the knowledge base in dir.
func LintDir(dir string) (*KnowledgeBase, []*ValidationError) {
	chars, err := os.ReadFile(filepath.Join(dir, CharactersFile))
	if err != nil {
		return nil, []*ValidationError{errorf("structural", CharactersFile, "", "%v", err)}
	}
	cons, err := os.ReadFile(filepath.Join(dir, ConsiderationsFile))
	if err != nil {
		return nil, []*ValidationError{errorf("structural", ConsiderationsFile, "", "%v", err)}
	}
	return Lint(chars, cons)
}

// LintEmbedded lints the knowledge base compiled into the binary.
func LintEmbedded() (*KnowledgeBase, []*ValidationError) {
	chars, err := EmbeddedFile(CharactersFile)
	if err != nil {
		return nil, []*ValidationError{errorf("structural", CharactersFile, "", "%v", err)}
	}
	cons, err := EmbeddedFile(ConsiderationsFile)
	if err != nil {
		return nil, []*ValidationError{errorf("structural", ConsiderationsFile, "", "%v", err)}
	}
	return Lint(chars, cons)
}

// Lint validates the two knowledge base documents.
// Phase 1: Structural (strict YAML decode)
// Phase 2: Semantic (JSON Schema validation)
// Phase 3: Domain (cross-references between entries)
// The knowledge base is returned whenever phase 1 succeeds.
func Lint(characters, considerations []byte) (*KnowledgeBase, []*ValidationError) {
	chars, err := decodeStrict[Character](bytes.NewReader(characters))
	if err != nil {
		return nil, []*ValidationError{errorf("structural", CharactersFile, "", "%v", err)}
	}
	cons, err := decodeStrict[Considerations](bytes.NewReader(considerations))
	if err != nil {
		return nil, []*ValidationError{errorf("structural", ConsiderationsFile, "", "%v", err)}
	}
	kb := New(chars, cons)

	var errs []*ValidationError
	errs = append(errs, validateSemantic(CharactersFile, characters, characterSchema())...)
	errs = append(errs, validateSemantic(ConsiderationsFile, considerations, considerationsSchema())...)
	errs = append(errs, ValidateDomain(kb)...)
	return kb, errs
}

// validateSemantic checks one YAML document against its JSON Schema.
func validateSemantic(file string, data []byte, schema *jsonschema.Schema) []*ValidationError {
	semantic := func(msg string, args ...any) []*ValidationError {
		return []*ValidationError{errorf("semantic", file, "", msg, args...)}
	}

	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return semantic("marshal schema: %v", err)
	}
	schemaDoc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return semantic("unmarshal schema: %v", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource(file+".schema.json", schemaDoc); err != nil {
		return semantic("add schema resource: %v", err)
	}
	sch, err := c.Compile(file + ".schema.json")
	if err != nil {
		return semantic("compile schema: %v", err)
	}

	// YAML → generic → JSON so numbers reach the validator as json.Number.
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return semantic("decode document: %v", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	docJSON, err := json.Marshal(raw)
	if err != nil {
		return semantic("marshal document: %v", err)
	}
	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(docJSON))
	if err != nil {
		return semantic("unmarshal document: %v", err)
	}

	if err := sch.Validate(doc); err != nil {
		ve, ok := err.(*sjsonschema.ValidationError)
		if !ok {
			return semantic("%v", err)
		}
		var errs []*ValidationError
		for _, cause := range flattenValidationErrors(ve) {
			errs = append(errs, &ValidationError{
				Phase:    "semantic",
				File:     file,
				Path:     strings.Join(cause.InstanceLocation, "."),
				Message:  fmt.Sprintf("%v", cause.ErrorKind),
				Severity: "error",
			})
		}
		return errs
	}
	return nil
}

// flattenValidationErrors recursively collects all leaf validation errors.
func flattenValidationErrors(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flattenValidationErrors(cause)...)
	}
	return flat
}

// ValidateDomain cross-checks the two documents. Each rule is independent
// and appends to the result; an empty result means the knowledge base is
// consistent.
func ValidateDomain(kb *KnowledgeBase) []*ValidationError {
	var errs []*ValidationError
	errs = append(errs, validateCoverage(kb)...)
	errs = append(errs, validateNames(kb)...)
	errs = append(errs, validateJinxes(kb)...)
	errs = append(errs, validateClashes(kb)...)
	errs = append(errs, validateConstraints(kb)...)
	return errs
}

// Rule 1: every considerations entry has reference data and vice versa.
func validateCoverage(kb *KnowledgeBase) []*ValidationError {
	var errs []*ValidationError
	for _, id := range kb.ConsiderationIDs() {
		if _, ok := kb.Character(id); !ok {
			errs = append(errs, errorf("domain", ConsiderationsFile, id, "character %q has considerations but no entry in %s", id, CharactersFile))
		}
	}
	for _, id := range kb.IDs() {
		if _, ok := kb.Considerations(id); !ok {
			errs = append(errs, warningf("domain", CharactersFile, id, "character %q has no considerations", id))
		}
	}
	return errs
}

// Rule 2: IDs are lowercase and do not collide with the metadata ID.
func validateNames(kb *KnowledgeBase) []*ValidationError {
	var errs []*ValidationError
	for _, id := range kb.IDs() {
		if id != strings.ToLower(id) {
			errs = append(errs, errorf("domain", CharactersFile, id, "character ID %q must be lowercase", id))
		}
		if strings.HasPrefix(id, "_") {
			errs = append(errs, errorf("domain", CharactersFile, id, "character ID %q is reserved", id))
		}
	}
	return errs
}

// Rule 3: jinx partners should be known characters.
func validateJinxes(kb *KnowledgeBase) []*ValidationError {
	var errs []*ValidationError
	for _, id := range kb.ConsiderationIDs() {
		c, _ := kb.Considerations(id)
		for i, j := range c.Jinxes {
			if _, ok := kb.Character(j); !ok {
				errs = append(errs, warningf("domain", ConsiderationsFile, fmt.Sprintf("%s.jinxes[%d]", id, i), "unknown jinx partner %q", j))
			}
		}
	}
	return errs
}

// Rule 4: clash partners must be known characters other than the owner.
func validateClashes(kb *KnowledgeBase) []*ValidationError {
	var errs []*ValidationError
	for _, id := range kb.ConsiderationIDs() {
		c, _ := kb.Considerations(id)
		for i, clash := range c.Clashes {
			path := fmt.Sprintf("%s.clashes[%d]", id, i)
			if len(clash.Characters) == 0 {
				errs = append(errs, errorf("domain", ConsiderationsFile, path, "clash lists no characters"))
			}
			for _, other := range clash.Characters {
				if other == id {
					errs = append(errs, errorf("domain", ConsiderationsFile, path, "character %q clashes with itself", id))
					continue
				}
				if _, ok := kb.Character(other); !ok {
					errs = append(errs, warningf("domain", ConsiderationsFile, path, "unknown clash partner %q", other))
				}
			}
		}
	}
	return errs
}

// Rule 5: constraint operators are supported and single-value subjects
// name a team or a known character.
func validateConstraints(kb *KnowledgeBase) []*ValidationError {
	var errs []*ValidationError
	for _, id := range kb.ConsiderationIDs() {
		c, _ := kb.Considerations(id)
		check := func(kind string, list []Constraint) {
			for i, con := range list {
				path := fmt.Sprintf("%s.%s[%d]", id, kind, i)
				if !con.Operator.Valid() {
					errs = append(errs, errorf("domain", ConsiderationsFile, path+".operator", "unsupported operator %q", con.Operator))
				}
				if con.Tag.List {
					if len(con.Tag.Values) == 0 {
						errs = append(errs, errorf("domain", ConsiderationsFile, path+".tag", "tag list is empty"))
					}
					continue
				}
				subject := con.Tag.Single()
				if _, isTeam := ParseTeam(subject); isTeam {
					continue
				}
				if _, ok := kb.Character(subject); !ok {
					errs = append(errs, warningf("domain", ConsiderationsFile, path+".tag", "%q is neither a team nor a known character", subject))
				}
			}
		}
		check("requirements", c.Requirements)
		check("suggestions", c.Suggestions)
	}
	return errs
}

// TagCounts returns how many characters carry each tag.
func (kb *KnowledgeBase) TagCounts() map[string]int {
	counts := map[string]int{}
	for _, id := range kb.ConsiderationIDs() {
		c, _ := kb.Considerations(id)
		for _, t := range c.Tags {
			counts[t]++
		}
	}
	return counts
}

// KnownTags returns every tag used in the knowledge base, sorted.
func (kb *KnowledgeBase) KnownTags() []string {
	counts := kb.TagCounts()
	tags := make([]string, 0, len(counts))
	for t := range counts {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
