package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/billing"
)

// WriteDailyCSV writes the daily activity series as CSV.
func WriteDailyCSV(w io.Writer, daily []analyzer.DailyActivity) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "sessions", "messages", "tokens", "cost_usd"}); err != nil {
		return err
	}
	for _, d := range daily {
		row := []string{
			d.Date,
			strconv.Itoa(d.Sessions),
			strconv.Itoa(d.Messages),
			strconv.FormatInt(d.Tokens, 10),
			strconv.FormatFloat(d.CostUSD, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBlocksCSV writes billing blocks as CSV, one row per block.
func WriteBlocksCSV(w io.Writer, blocks []billing.Block) error {
	cw := csv.NewWriter(w)
	header := []string{
		"start", "end", "status", "messages", "tool_invocations",
		"input_tokens", "output_tokens", "cache_read_tokens", "cache_write_tokens",
		"cost_usd",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, b := range blocks {
		row := []string{
			b.Start.Format(time.RFC3339),
			b.End.Format(time.RFC3339),
			string(b.Status),
			strconv.Itoa(b.MessageCount),
			strconv.Itoa(b.ToolInvocations),
			strconv.FormatInt(b.InputTokens, 10),
			strconv.FormatInt(b.OutputTokens, 10),
			strconv.FormatInt(b.CacheReadTokens, 10),
			strconv.FormatInt(b.CacheCreationTokens, 10),
			strconv.FormatFloat(b.EstimatedCost, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
