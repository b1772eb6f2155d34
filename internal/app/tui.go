package app

import (
	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Interactive session browser",
	Long: `Full-screen terminal UI for browsing sessions: filter by typing,
arrow keys to move, tab to toggle between the main thread and the full
tree in the preview pane, Esc or q to quit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return tui.Run(cfg.ClaudeHome, parserOptions(cfg))
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
