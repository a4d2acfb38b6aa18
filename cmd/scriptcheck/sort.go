package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/scriptcheck/pkg/sorter"
)

var sortExplain bool

var sortCmd = &cobra.Command{
	Use:   "sort [script.json|-]",
	Short: "Print a script in display order",
	Long:  "Sort a script into the conventional display order: team, ability opening phrase, ability length, name length, then name. Metadata stays first.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSort,
}

func runSort(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := cfg.KnowledgeBase()
	if err != nil {
		return err
	}
	sc, err := readScript(cmd, path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	s := sorter.New(base)
	sorted := s.Sort(sc)
	data, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal script: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))

	if sortExplain {
		for _, line := range s.ExplainScript(sorted) {
			fmt.Fprintf(os.Stderr, "  %s\n", line)
		}
	}
	return nil
}

func init() {
	sortCmd.Flags().BoolVar(&sortExplain, "explain", false, "Explain the order on stderr, one sentence per adjacent pair")
}
