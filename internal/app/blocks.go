package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/billing"
	"github.com/quarryhill/cclens/internal/config"
	"github.com/quarryhill/cclens/internal/output"
	"github.com/quarryhill/cclens/internal/store"
)

var (
	blocksFlagLimit int
	blocksFlagSave  bool
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Show usage aggregated into billing windows",
	Long: `Group all activity into fixed-length billing windows (5 hours by
default, configurable via billing.block_hours) aligned to UTC hour
boundaries. The current window shows remaining time and a progress bar.

Examples:
  cclens blocks
  cclens blocks --limit 5
  cclens blocks --json`,
	RunE: runBlocks,
}

func init() {
	blocksCmd.Flags().IntVar(&blocksFlagLimit, "limit", 10, "Maximum blocks to display, newest first")
	blocksCmd.Flags().BoolVar(&blocksFlagSave, "save", false, "Also record the blocks to the local database")
	rootCmd.AddCommand(blocksCmd)
}

func runBlocks(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, loaded, err := loadSummaries(cfg)
	if err != nil {
		return err
	}
	blocks := billing.Aggregate(allRecords(loaded), billingOptions(cfg))

	if blocksFlagSave {
		if err := saveBlocks(blocks); err != nil {
			return fmt.Errorf("saving blocks: %w", err)
		}
	}

	if len(blocks) == 0 {
		fmt.Println("No billable activity found.")
		return nil
	}

	// Newest first for display.
	for i, j := 0, len(blocks)-1; i < j; i, j = i+1, j-1 {
		blocks[i], blocks[j] = blocks[j], blocks[i]
	}
	if blocksFlagLimit > 0 && len(blocks) > blocksFlagLimit {
		blocks = blocks[:blocksFlagLimit]
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(blocks)
	}

	now := time.Now()
	window := time.Duration(cfg.Billing.BlockHours) * time.Hour
	barWidth := cfg.Output.Width / 3
	if barWidth < 20 {
		barWidth = 20
	}

	fmt.Println(output.StyleHeader.Render("Billing Blocks"))
	fmt.Println()

	if blocks[0].Status == billing.StatusActive {
		b := blocks[0]
		elapsed := window - b.Remaining(now)
		fmt.Println(output.StyleBold.Render("Current block"))
		fmt.Printf("  %s  %s\n", b.Start.Local().Format("Jan 02 15:04"),
			output.BlockBar(elapsed, window, barWidth))
		fmt.Printf("  %s tokens, $%.2f, %d messages\n",
			formatTokens(b.TotalTokens()), b.EstimatedCost, b.MessageCount)
		if cfg.Billing.BudgetUSD > 0 {
			pct := b.EstimatedCost / cfg.Billing.BudgetUSD * 100
			fmt.Printf("  budget %s\n", output.RateBar(pct, barWidth))
		}
		fmt.Println()
	}

	tbl := output.NewTable("START", "STATUS", "MSGS", "TOOLS", "TOKENS", "CACHE", "COST")
	tbl.AlignRight(2, 3, 4, 5, 6)
	for i := range blocks {
		b := &blocks[i]
		cost := fmt.Sprintf("$%.2f", b.EstimatedCost)
		if b.CostEstimated {
			cost += "*"
		}
		tbl.AddRow(
			b.Start.Local().Format("Jan 02 15:04"),
			string(b.Status),
			fmt.Sprintf("%d", b.MessageCount),
			fmt.Sprintf("%d", b.ToolInvocations),
			formatTokens(b.TotalTokens()),
			formatTokens(b.CacheReadTokens),
			cost,
		)
	}
	tbl.Print()
	fmt.Println(output.StyleMuted.Render("* cost estimated from token counts"))
	return nil
}

func saveBlocks(blocks []billing.Block) error {
	db, err := store.Open(config.DBPath())
	if err != nil {
		return err
	}
	defer db.Close()

	scanID, err := db.CreateScan("blocks", appVersion)
	if err != nil {
		return err
	}
	return db.InsertBlocks(scanID, blocks)
}
