package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ormasoftchile/scriptcheck/pkg/config"
	"github.com/ormasoftchile/scriptcheck/pkg/kb"
	"github.com/ormasoftchile/scriptcheck/pkg/report"
	"github.com/ormasoftchile/scriptcheck/pkg/validate"
)

var (
	checkFormat      string
	checkMinSeverity string
	checkOrder       bool
	checkDisable     []string
	checkJobs        int
	checkFailOn      string
)

var checkCmd = &cobra.Command{
	Use:   "check [script.json...]",
	Short: "Check scripts for design issues",
	Long:  "Check one or more script JSON files. With no files, or with '-', the script is read from stdin.",
	RunE:  runCheck,
}

// applyCheckFlags overlays explicitly set flags on the loaded config.
func applyCheckFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = checkFormat
	}
	if flags.Changed("min-severity") {
		cfg.Output.MinSeverity = checkMinSeverity
	}
	if flags.Changed("check-order") {
		cfg.Checks.ScriptOrder = checkOrder
	}
	cfg.Checks.Disable = append(cfg.Checks.Disable, checkDisable...)
	return cfg.Validate()
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyCheckFlags(cmd, cfg); err != nil {
		return err
	}
	var failOn kb.Severity
	if checkFailOn != "" {
		if failOn, err = kb.ParseSeverity(checkFailOn); err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
	}
	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	v, base, err := cfg.Validator()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"-"}
	}
	reports, failed := checkFiles(cmd, args, v, base, cfg.MinSeverity())

	out := cmd.OutOrStdout()
	if err := report.Write(out, format, reports, report.Options{Color: colorEnabled(out)}); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d script(s) could not be checked", failed)
	}
	if failOn != 0 {
		for _, r := range reports {
			if top := validate.MaxSeverity(r.Findings); top >= failOn {
				return fmt.Errorf("found %s severity issues (--fail-on %s)", top, failOn)
			}
		}
	}
	return nil
}

// checkFiles validates paths concurrently, keeping argument order.
func checkFiles(cmd *cobra.Command, paths []string, v *validate.Validator, base kb.Lookup, floor kb.Severity) ([]report.Report, int) {
	reports := make([]report.Report, len(paths))
	var g errgroup.Group
	g.SetLimit(max(checkJobs, 1))
	for i, path := range paths {
		g.Go(func() error {
			name := path
			if path == "-" {
				name = ""
			}
			sc, err := readScript(cmd, path)
			if err != nil {
				reports[i] = report.Failed(path, err)
				return nil
			}
			findings := validate.Filter(v.Validate(sc), floor)
			reports[i] = report.New(name, sc.Title(), findings, sc.Lookup(base), v.Label)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range reports {
		if r.Error != "" {
			failed++
		}
	}
	return reports, failed
}

func init() {
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format: text, json, or markdown")
	checkCmd.Flags().StringVar(&checkMinSeverity, "min-severity", "low", "Hide findings below this severity: low, medium, or high")
	checkCmd.Flags().BoolVar(&checkOrder, "check-order", false, "Also check that the script is in display order")
	checkCmd.Flags().StringArrayVar(&checkDisable, "disable", nil, "Disable a rule by ID, repeatable")
	checkCmd.Flags().IntVarP(&checkJobs, "jobs", "j", 4, "Number of scripts checked concurrently")
	checkCmd.Flags().StringVar(&checkFailOn, "fail-on", "", "Exit with status 1 if any finding is at or above this severity")
}
