// Package app contains the Cobra command tree for cclens.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/output"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagJSON    bool
	flagVerbose bool
	flagConfig  string
	flagHome    string
	flagStrict  bool
)

var rootCmd = &cobra.Command{
	Use:   "cclens",
	Short: "Inspect and analyze local agent session logs",
	Long: `cclens reads the JSONL session transcripts that Claude Code writes
under ~/.claude, reconstructs conversation trees, and reports on token
usage, tool activity, retries, and billing blocks. Everything runs
offline against local files.

Run 'cclens' with no arguments for this overview, or use a subcommand.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagNoColor {
			output.SetNoColor(true)
		} else {
			output.DetectColor(false)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("cclens", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  sessions  List and inspect sessions across projects")
		fmt.Println("  show      Render one session's conversation")
		fmt.Println("  stats     Aggregate usage, tools, and daily activity")
		fmt.Println("  blocks    Group usage into billing blocks")
		fmt.Println("  retries   Report API error retry chains")
		fmt.Println("  export    Write sessions or rollups to a file")
		fmt.Println("  track     Snapshot stats into the local database")
		fmt.Println("  watch     Follow live session activity and alerts")
		fmt.Println("  tui       Interactive session browser")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/cclens/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "", "Session data directory (default: ~/.claude)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "Abort on the first malformed log line")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable verbose output")
}
