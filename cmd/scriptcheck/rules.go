package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var rulesJSON bool

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the rules that run, with their labels",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	v, _, err := cfg.Validator()
	if err != nil {
		return err
	}
	rules := v.Rules()

	out := cmd.OutOrStdout()
	if rulesJSON {
		data, err := json.MarshalIndent(rules, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	for _, r := range rules {
		fmt.Fprintf(out, "%-32s %s\n", r.ID, r.Label)
	}
	return nil
}

func init() {
	rulesCmd.Flags().BoolVar(&rulesJSON, "json", false, "Output as JSON")
}
