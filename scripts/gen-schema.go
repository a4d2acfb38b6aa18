//go:build ignore

package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
)

func main() {
	outputs := []struct {
		path string
		gen  func() ([]byte, error)
	}{
		{"schemas/script.json", script.GenerateJSONSchema},
		{"schemas/characters.json", kb.GenerateCharactersJSONSchema},
		{"schemas/considerations.json", kb.GenerateConsiderationsJSONSchema},
	}
	if err := os.MkdirAll("schemas", 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	for _, o := range outputs {
		data, err := o.gen()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error generating %s: %v\n", o.path, err)
			os.Exit(1)
		}
		if err := os.WriteFile(o.path, data, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("wrote", o.path)
	}
}
