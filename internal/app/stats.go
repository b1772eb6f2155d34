package app

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/output"
)

var statsFlagDaily bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate usage statistics across all sessions",
	Long: `Roll every session up into totals: tokens, cost, turns, tool usage
and per-model breakdowns, plus a daily activity series.

Examples:
  cclens stats
  cclens stats --daily
  cclens stats --json`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsFlagDaily, "daily", false, "Show the full daily activity table")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	summaries, loaded, err := loadSummaries(cfg)
	if err != nil {
		return err
	}
	rollup := analyzer.Aggregate(summaries)

	var skipped int
	for _, ls := range loaded {
		skipped += ls.Stats.LinesSkipped
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rollup)
	}

	fmt.Println(output.StyleHeader.Render("Usage Statistics"))
	fmt.Println()
	printMetric("Sessions", fmt.Sprintf("%d", rollup.Sessions))
	printMetric("Records", fmt.Sprintf("%d", rollup.Records))
	printMetric("Turns", fmt.Sprintf("%d", rollup.Turns))
	printMetric("Tokens", formatTokens(rollup.Tokens.TotalTokens()))
	printMetric("Cache reads", formatTokens(rollup.Tokens.CacheReadInputTokens))
	printMetric("Cost", fmt.Sprintf("$%.2f", rollup.CostUSD))
	if skipped > 0 {
		fmt.Println(output.StyleWarning.Render(
			fmt.Sprintf("  %d malformed lines skipped during parsing", skipped)))
	}

	if len(rollup.Generations) > 0 {
		gens := make([]string, 0, len(rollup.Generations))
		for g := range rollup.Generations {
			gens = append(gens, g)
		}
		sort.Strings(gens)
		fmt.Println()
		fmt.Println(output.StyleHeader.Render("Schema Generations"))
		for _, g := range gens {
			printMetric(g, fmt.Sprintf("%d sessions", rollup.Generations[g]))
		}
	}

	if len(rollup.Tools) > 0 {
		fmt.Println()
		fmt.Println(output.StyleHeader.Render("Tools"))
		tbl := output.NewTable("TOOL", "CALLS", "ERRORS")
		tbl.AlignRight(1, 2)
		limit := len(rollup.Tools)
		if limit > 10 {
			limit = 10
		}
		for _, t := range rollup.Tools[:limit] {
			tbl.AddRow(t.Name, fmt.Sprintf("%d", t.Invocations), fmt.Sprintf("%d", t.Errors))
		}
		tbl.Print()
	}

	if len(rollup.Models) > 0 {
		fmt.Println()
		fmt.Println(output.StyleHeader.Render("Models"))
		tbl := output.NewTable("MODEL", "MESSAGES", "TOKENS", "COST")
		tbl.AlignRight(1, 2, 3)
		for _, mu := range rollup.Models {
			tbl.AddRow(mu.Model, fmt.Sprintf("%d", mu.Messages),
				formatTokens(mu.Usage.TotalTokens()), fmt.Sprintf("$%.2f", mu.CostUSD))
		}
		tbl.Print()
	}

	if statsFlagDaily && len(rollup.Daily) > 0 {
		fmt.Println()
		fmt.Println(output.StyleHeader.Render("Daily Activity"))
		tbl := output.NewTable("DATE", "SESSIONS", "MESSAGES", "TOKENS", "COST")
		tbl.AlignRight(1, 2, 3, 4)
		for _, d := range rollup.Daily {
			tbl.AddRow(d.Date, fmt.Sprintf("%d", d.Sessions), fmt.Sprintf("%d", d.Messages),
				formatTokens(d.Tokens), fmt.Sprintf("$%.2f", d.CostUSD))
		}
		tbl.Print()
	}

	return nil
}
