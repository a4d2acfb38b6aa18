package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/scriptcheck/pkg/report"
	"github.com/ormasoftchile/scriptcheck/pkg/sorter"
	"github.com/ormasoftchile/scriptcheck/pkg/tui"
)

var viewCmd = &cobra.Command{
	Use:   "view [script.json|-]",
	Short: "Browse a script's findings in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runView,
}

func runView(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, base, err := cfg.Validator()
	if err != nil {
		return err
	}
	sc, err := readScript(cmd, path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	look := sc.Lookup(base)
	name := path
	if path == "-" {
		name = ""
	}
	r := report.New(name, sc.Title(), v.Validate(sc), look, v.Label)

	s := sorter.New(base)
	sorted := s.Sort(sc)
	return tui.Run(r, look, sorted.IDs(), s.ExplainScript(sorted))
}
