package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/billing"
	"github.com/quarryhill/cclens/internal/config"
	"github.com/quarryhill/cclens/internal/output"
	"github.com/quarryhill/cclens/internal/store"
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record a usage snapshot for trend tracking",
	Long: `Scan all sessions, summarize them, and persist the results to the
local database. Each run becomes a scan; later runs show the cost and
token trend against the previous scan.

Examples:
  cclens track`,
	RunE: runTrack,
}

func init() {
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	summaries, loaded, err := loadSummaries(cfg)
	if err != nil {
		return err
	}
	blocks := billing.Aggregate(allRecords(loaded), billingOptions(cfg))

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	scanID, err := db.CreateScan("track", appVersion)
	if err != nil {
		return fmt.Errorf("creating scan: %w", err)
	}
	for _, sum := range summaries {
		if err := db.InsertSessionSummary(scanID, sum); err != nil {
			return fmt.Errorf("storing session %s: %w", sum.SessionID, err)
		}
	}
	if err := db.InsertBlocks(scanID, blocks); err != nil {
		return fmt.Errorf("storing blocks: %w", err)
	}

	rollup := analyzer.Aggregate(summaries)
	fmt.Println(output.StyleSuccess.Render(
		fmt.Sprintf("Recorded scan #%d: %d sessions, %s tokens, $%.2f",
			scanID, rollup.Sessions, formatTokens(rollup.Tokens.TotalTokens()), rollup.CostUSD)))

	trend, err := db.CostTrend()
	if err != nil {
		return fmt.Errorf("reading cost trend: %w", err)
	}
	if len(trend) >= 2 {
		prev := trend[len(trend)-2]
		curr := trend[len(trend)-1]
		fmt.Printf("Cost vs previous scan: %s\n", output.TrendArrow(curr-prev, false))
	}

	if prev, err := db.ScanN(2); err == nil && prev != nil {
		fmt.Println(output.StyleMuted.Render("Previous scan: " + prev.TakenAt.Local().Format("Jan 02 15:04")))
	}
	return nil
}
