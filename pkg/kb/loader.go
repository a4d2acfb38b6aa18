package kb

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// File names of the two knowledge base documents.
const (
	CharactersFile     = "characters.yaml"
	ConsiderationsFile = "considerations.yaml"
)

//go:embed data/*.yaml
var embedded embed.FS

// Lookup is the read-only view of a knowledge base that the checks consume.
// A miss is not an error: an unknown character simply has no properties.
type Lookup interface {
	Character(id string) (Character, bool)
	Considerations(id string) (Considerations, bool)
}

// KnowledgeBase maps character IDs to reference data and considerations.
// It is immutable after loading and safe for concurrent use.
type KnowledgeBase struct {
	characters     map[string]Character
	considerations map[string]Considerations
}

// New builds a knowledge base from in-memory tables. Character IDs are taken
// from the map keys.
func New(characters map[string]Character, considerations map[string]Considerations) *KnowledgeBase {
	kb := &KnowledgeBase{
		characters:     make(map[string]Character, len(characters)),
		considerations: make(map[string]Considerations, len(considerations)),
	}
	for id, c := range characters {
		c.ID = id
		kb.characters[id] = c
	}
	for id, c := range considerations {
		kb.considerations[id] = c
	}
	return kb
}

// Character returns the reference data for id.
func (kb *KnowledgeBase) Character(id string) (Character, bool) {
	c, ok := kb.characters[id]
	return c, ok
}

// Considerations returns the considerations for id.
func (kb *KnowledgeBase) Considerations(id string) (Considerations, bool) {
	c, ok := kb.considerations[id]
	return c, ok
}

// IDs returns every character ID with reference data, sorted.
func (kb *KnowledgeBase) IDs() []string {
	ids := make([]string, 0, len(kb.characters))
	for id := range kb.characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConsiderationIDs returns every character ID with considerations, sorted.
func (kb *KnowledgeBase) ConsiderationIDs() []string {
	ids := make([]string, 0, len(kb.considerations))
	for id := range kb.considerations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load strictly decodes the two knowledge base documents.
func Load(characters, considerations io.Reader) (*KnowledgeBase, error) {
	chars, err := decodeStrict[Character](characters)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CharactersFile, err)
	}
	cons, err := decodeStrict[Considerations](considerations)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ConsiderationsFile, err)
	}
	return New(chars, cons), nil
}

// LoadDir loads characters.yaml and considerations.yaml from dir.
func LoadDir(dir string) (*KnowledgeBase, error) {
	cf, err := os.Open(filepath.Join(dir, CharactersFile))
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	defer cf.Close()
	kf, err := os.Open(filepath.Join(dir, ConsiderationsFile))
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	defer kf.Close()
	return Load(cf, kf)
}

// Embedded loads the knowledge base compiled into the binary.
func Embedded() (*KnowledgeBase, error) {
	cf, err := embedded.Open("data/" + CharactersFile)
	if err != nil {
		return nil, err
	}
	defer cf.Close()
	kf, err := embedded.Open("data/" + ConsiderationsFile)
	if err != nil {
		return nil, err
	}
	defer kf.Close()
	return Load(cf, kf)
}

// EmbeddedFile returns the raw bytes of an embedded knowledge base document.
func EmbeddedFile(name string) ([]byte, error) {
	return embedded.ReadFile("data/" + name)
}

var defaultKB = sync.OnceValues(Embedded)

// Default returns the shared embedded knowledge base. The embedded data is
// covered by tests, so a decode failure here is a build defect.
func Default() *KnowledgeBase {
	kb, err := defaultKB()
	if err != nil {
		panic(fmt.Sprintf("kb: embedded knowledge base: %v", err))
	}
	return kb
}

func decodeStrict[T any](r io.Reader) (map[string]T, error) {
	out := map[string]T{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // strict: reject unknown fields
	if err := dec.Decode(&out); err != nil && err != io.EOF {
		return nil, fmt.Errorf("structural decode: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Overlay
// ---------------------------------------------------------------------------

// overlay layers script-local characters over a base lookup. Inline
// characters shadow base reference data; considerations always come from
// the base.
type overlay struct {
	base  Lookup
	extra map[string]Character
}

// WithCharacters returns a Lookup in which chars shadow base's reference
// data. When chars is empty, base is returned unchanged.
func WithCharacters(base Lookup, chars ...Character) Lookup {
	if len(chars) == 0 {
		return base
	}
	o := &overlay{base: base, extra: make(map[string]Character, len(chars))}
	for _, c := range chars {
		o.extra[c.ID] = c
	}
	return o
}

func (o *overlay) Character(id string) (Character, bool) {
	if c, ok := o.extra[id]; ok {
		return c, true
	}
	return o.base.Character(id)
}

func (o *overlay) Considerations(id string) (Considerations, bool) {
	return o.base.Considerations(id)
}
