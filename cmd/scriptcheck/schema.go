package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
)

// schemaGenerators maps schema names to their generators.
var schemaGenerators = map[string]func() ([]byte, error){
	"script":         script.GenerateJSONSchema,
	"characters":     kb.GenerateCharactersJSONSchema,
	"considerations": kb.GenerateConsiderationsJSONSchema,
}

func schemaNames() []string {
	names := make([]string, 0, len(schemaGenerators))
	for name := range schemaGenerators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

var schemaOut string

var schemaCmd = &cobra.Command{
	Use:   "schema [script|characters|considerations]",
	Short: "Export JSON Schema for scripts or knowledge base files",
	Long:  "Print one JSON Schema to stdout, or write all of them to a directory with --out.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	if schemaOut != "" {
		if err := os.MkdirAll(schemaOut, 0o755); err != nil {
			return err
		}
		for _, name := range schemaNames() {
			data, err := schemaGenerators[name]()
			if err != nil {
				return fmt.Errorf("generate %s schema: %w", name, err)
			}
			path := filepath.Join(schemaOut, name+".json")
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			fmt.Fprintf(os.Stderr, "wrote %s\n", path)
		}
		return nil
	}

	name := "script"
	if len(args) == 1 {
		name = args[0]
	}
	gen, ok := schemaGenerators[name]
	if !ok {
		return fmt.Errorf("unknown schema %q: use %s", name, strings.Join(schemaNames(), ", "))
	}
	data, err := gen()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	var out json.RawMessage = data
	formatted, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(formatted))
	return nil
}

func init() {
	schemaCmd.Flags().StringVar(&schemaOut, "out", "", "Write every schema into this directory")
}
