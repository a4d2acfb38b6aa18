package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/scriptcheck/pkg/kb"
)

var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect the character knowledge base",
}

var kbLintCmd = &cobra.Command{
	Use:   "lint [dir]",
	Short: "Validate knowledge base YAML files",
	Long:  "Lint characters.yaml and considerations.yaml in dir, or the embedded knowledge base when dir is omitted. Runs strict decoding, JSON Schema validation and cross-reference checks.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKBLint,
}

var kbTagsCmd = &cobra.Command{
	Use:   "tags [dir]",
	Short: "List tags with the number of characters carrying each",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runKBTags,
}

func runKBLint(cmd *cobra.Command, args []string) error {
	var (
		base *kb.KnowledgeBase
		errs []*kb.ValidationError
	)
	source := "embedded knowledge base"
	if len(args) == 1 {
		source = args[0]
		base, errs = kb.LintDir(args[0])
	} else {
		base, errs = kb.LintEmbedded()
	}

	out := cmd.ErrOrStderr()
	n := printLint(out, errs)
	if n > 0 {
		return fmt.Errorf("lint failed with %d error(s)", n)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid (%d characters)\n", source, len(base.IDs()))
	return nil
}

// printLint writes warnings then errors, and returns the error count.
func printLint(w io.Writer, errs []*kb.ValidationError) int {
	var errors, warnings []*kb.ValidationError
	for _, e := range errs {
		if e.Severity == "warning" {
			warnings = append(warnings, e)
		} else {
			errors = append(errors, e)
		}
	}
	for _, e := range warnings {
		fmt.Fprintf(w, "  ⚠ [%s] %s: %s\n", e.Phase, e.File, e.Message)
		if e.Path != "" {
			fmt.Fprintf(w, "    at: %s\n", e.Path)
		}
	}
	if len(errors) > 0 {
		fmt.Fprintf(w, "Lint failed: %d error(s)\n\n", len(errors))
		for i, e := range errors {
			fmt.Fprintf(w, "  %d. [%s] %s: %s\n", i+1, e.Phase, e.File, e.Message)
			if e.Path != "" {
				fmt.Fprintf(w, "     at: %s\n", e.Path)
			}
		}
	}
	return len(errors)
}

func runKBTags(cmd *cobra.Command, args []string) error {
	base := kb.Default()
	if len(args) == 1 {
		var err error
		if base, err = kb.LoadDir(args[0]); err != nil {
			return err
		}
	}
	counts := base.TagCounts()
	for _, tag := range base.KnownTags() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-32s %d\n", tag, counts[tag])
	}
	return nil
}

func init() {
	kbCmd.AddCommand(kbLintCmd)
	kbCmd.AddCommand(kbTagsCmd)
}
