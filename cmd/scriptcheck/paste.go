package main

import (
	"github.com/spf13/cobra"

	"github.com/ormasoftchile/scriptcheck/pkg/repl"
)

var pasteCmd = &cobra.Command{
	Use:   "paste",
	Short: "Interactive prompt: paste a script to check it",
	Args:  cobra.NoArgs,
	RunE:  runPaste,
}

func runPaste(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	base, err := cfg.KnowledgeBase()
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}
	s := repl.New(base, opts)
	out := cmd.OutOrStdout()
	s.SetOutput(out, colorEnabled(out))
	return s.Run(cmd.Context())
}
