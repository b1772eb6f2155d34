package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/billing"
	"github.com/quarryhill/cclens/internal/config"
	"github.com/quarryhill/cclens/internal/conversation"
	"github.com/quarryhill/cclens/internal/discover"
	"github.com/quarryhill/cclens/internal/export"
	"github.com/quarryhill/cclens/internal/parser"
)

var (
	exportFlagFormat string
	exportFlagOut    string
	exportFlagThread string
)

var exportCmd = &cobra.Command{
	Use:   "export [session-id]",
	Short: "Export session data in various formats",
	Long: `Export a single session or the cross-session aggregate.

With a session argument:
  md     Markdown transcript
  json   full session summary
  jsonl  lossless record re-emit (.gz / .zst by extension)
  sqlite records, messages, and blocks as a SQLite database

Without a session argument:
  json   aggregate rollup
  csv    daily activity series
  blocks billing blocks as CSV

Examples:
  cclens export abc12345 --format md -o transcript.md
  cclens export abc12345 --format jsonl -o session.jsonl.zst
  cclens export --format csv -o daily.csv
  cclens export --format blocks -o blocks.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFlagFormat, "format", "json", "Output format")
	exportCmd.Flags().StringVarP(&exportFlagOut, "out", "o", "", "Write to file instead of stdout")
	exportCmd.Flags().StringVar(&exportFlagThread, "thread", "main", "Thread for Markdown export")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return exportSession(cfg, args[0])
	}
	return exportAggregate(cfg)
}

func exportSession(cfg *config.Config, idOrPrefix string) error {
	file, ok, err := discover.FindSession(cfg.ClaudeHome, idOrPrefix)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no session matching %q", idOrPrefix)
	}
	records, _, err := parser.ReadFile(file.Path, parserOptions(cfg))
	if err != nil {
		return err
	}

	switch exportFlagFormat {
	case "sqlite":
		if exportFlagOut == "" {
			return fmt.Errorf("sqlite export requires --out")
		}
		blocks := billing.Aggregate(records, billingOptions(cfg))
		if err := export.WriteSQLite(exportFlagOut, records, blocks); err != nil {
			return err
		}

	case "jsonl":
		if exportFlagOut == "" {
			return export.WriteJSONL(os.Stdout, records)
		}
		if err := export.WriteJSONLFile(exportFlagOut, records); err != nil {
			return err
		}

	case "md":
		w, closeFn, err := outWriter()
		if err != nil {
			return err
		}
		defer closeFn()
		conv := conversation.Build(records)
		opts := export.MarkdownOptions{
			Title:  "Session " + file.SessionID,
			Thread: export.Thread(exportFlagThread),
		}
		if err := export.WriteMarkdown(w, conv, opts); err != nil {
			return err
		}

	case "json":
		w, closeFn, err := outWriter()
		if err != nil {
			return err
		}
		defer closeFn()
		sum := analyzer.Summarize(file.SessionID, records)
		sum.ProjectHash = file.ProjectHash
		if err := export.WriteJSON(w, sum); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown session export format %q (want md, json, jsonl, or sqlite)", exportFlagFormat)
	}

	if exportFlagOut != "" {
		fmt.Printf("Wrote %s\n", exportFlagOut)
	}
	return nil
}

func exportAggregate(cfg *config.Config) error {
	summaries, loaded, err := loadSummaries(cfg)
	if err != nil {
		return err
	}

	w, closeFn, err := outWriter()
	if err != nil {
		return err
	}
	defer closeFn()

	switch exportFlagFormat {
	case "json":
		rollup := analyzer.Aggregate(summaries)
		if err := export.WriteJSON(w, rollup); err != nil {
			return err
		}
	case "csv":
		rollup := analyzer.Aggregate(summaries)
		if err := export.WriteDailyCSV(w, rollup.Daily); err != nil {
			return err
		}
	case "blocks":
		blocks := billing.Aggregate(allRecords(loaded), billingOptions(cfg))
		if err := export.WriteBlocksCSV(w, blocks); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown aggregate export format %q (want json, csv, or blocks)", exportFlagFormat)
	}

	if exportFlagOut != "" {
		fmt.Printf("Wrote %s\n", exportFlagOut)
	}
	return nil
}

// outWriter resolves --out into a writer, defaulting to stdout.
func outWriter() (*os.File, func(), error) {
	if exportFlagOut == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(exportFlagOut)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", exportFlagOut, err)
	}
	return f, func() { f.Close() }, nil
}
