package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/conversation"
	"github.com/quarryhill/cclens/internal/discover"
	"github.com/quarryhill/cclens/internal/export"
	"github.com/quarryhill/cclens/internal/parser"
)

var (
	showFlagThread     string
	showFlagOutput     string
	showFlagTimestamps bool
)

var showCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Render a session transcript as Markdown",
	Long: `Reconstruct a conversation transcript from a session log and render
it as Markdown. By default the main thread is shown; branches created by
message edits can be selected with --thread.

Threads:
  main     first-child path from the root (default)
  deepest  longest path in the tree
  latest   path ending at the most recent message
  all      every node in depth-first order

Examples:
  cclens show abc12345
  cclens show abc12345 --thread deepest
  cclens show abc12345 -o transcript.md`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showFlagThread, "thread", "main", "Thread to render: main, deepest, latest, all")
	showCmd.Flags().StringVarP(&showFlagOutput, "output", "o", "", "Write to file instead of stdout")
	showCmd.Flags().BoolVar(&showFlagTimestamps, "timestamps", false, "Include message timestamps")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	file, ok, err := discover.FindSession(cfg.ClaudeHome, args[0])
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no session matching %q", args[0])
	}

	records, _, err := parser.ReadFile(file.Path, parserOptions(cfg))
	if err != nil {
		return err
	}
	conv := conversation.Build(records)

	thread := export.Thread(showFlagThread)
	switch thread {
	case export.ThreadMain, export.ThreadDeepest, export.ThreadLatest, export.ThreadAll:
	default:
		return fmt.Errorf("unknown thread %q (want main, deepest, latest, or all)", showFlagThread)
	}

	opts := export.MarkdownOptions{
		Title:      "Session " + file.SessionID,
		Thread:     thread,
		Timestamps: showFlagTimestamps,
	}

	if showFlagOutput != "" {
		f, err := os.Create(showFlagOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", showFlagOutput, err)
		}
		defer f.Close()
		if err := export.WriteMarkdown(f, conv, opts); err != nil {
			return err
		}
		fmt.Printf("Wrote transcript to %s\n", showFlagOutput)
		return nil
	}

	return export.WriteMarkdown(os.Stdout, conv, opts)
}
