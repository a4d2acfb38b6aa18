package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ormasoftchile/scriptcheck/pkg/config"
	"github.com/ormasoftchile/scriptcheck/pkg/script"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

var (
	configPath string
	noColor    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "scriptcheck",
	Short:        "Lint Blood on the Clocktower scripts",
	Long:         "scriptcheck checks custom Blood on the Clocktower scripts for design issues: too little misinformation, clashing characters, unbalanced protection and more.",
	SilenceUsage: true,
}

// loadConfig reads the config file and environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// readScript parses a script file, or stdin when path is "-". Markdown
// files yield their first json code block.
func readScript(cmd *cobra.Command, path string) (*script.Script, error) {
	if path == "-" {
		return script.ParseReader(cmd.InOrStdin())
	}
	return script.ReadFile(path)
}

// colorEnabled reports whether w is a terminal and color is not disabled.
func colorEnabled(w io.Writer) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice != 0
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scriptcheck %s (build: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to scriptcheck.yaml (default: $SCRIPTCHECK_CONFIG or ~/.config/scriptcheck/scriptcheck.yaml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(sortCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(pasteCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
