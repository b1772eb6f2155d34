package app

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/conversation"
	"github.com/quarryhill/cclens/internal/discover"
	"github.com/quarryhill/cclens/internal/output"
	"github.com/quarryhill/cclens/internal/parser"
)

var retriesCmd = &cobra.Command{
	Use:   "retries [session-id]",
	Short: "Report API-error retry chains",
	Long: `Reconstruct retry chains from api_error system records. A chain is
considered recovered when its last attempt stops short of the retry
budget. With no session argument, all sessions are scanned.

Examples:
  cclens retries
  cclens retries abc12345`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRetries,
}

func init() {
	rootCmd.AddCommand(retriesCmd)
}

type sessionRetries struct {
	SessionID string                    `json:"session_id"`
	Report    *conversation.RetryReport `json:"report"`
}

func runRetries(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var results []sessionRetries
	if len(args) == 1 {
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
		results = append(results, sessionRetries{
			SessionID: file.SessionID,
			Report:    conversation.TrackRetries(records),
		})
	} else {
		_, loaded, err := loadSummaries(cfg)
		if err != nil {
			return err
		}
		for _, ls := range loaded {
			if ls.Err != nil {
				continue
			}
			report := conversation.TrackRetries(ls.Records)
			if report.TotalChains == 0 {
				continue
			}
			results = append(results, sessionRetries{
				SessionID: ls.File.SessionID,
				Report:    report,
			})
		}
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 || (len(results) == 1 && results[0].Report.TotalChains == 0) {
		fmt.Println(output.StyleSuccess.Render("No retry chains found."))
		return nil
	}

	fmt.Println(output.StyleHeader.Render("Retry Chains"))
	fmt.Println()
	for _, res := range results {
		r := res.Report
		fmt.Printf("%s  %d chains, %d attempts, %.0f%% recovered\n",
			output.StyleBold.Render(shortID(res.SessionID)),
			r.TotalChains, r.TotalRetries, r.SuccessRate()*100)
		for _, chain := range r.Chains {
			status := output.StyleError.Render("exhausted")
			if chain.Recovered() {
				status = output.StyleSuccess.Render("recovered")
			}
			var when string
			if len(chain.Attempts) > 0 && !chain.Attempts[0].Timestamp.IsZero() {
				when = chain.Attempts[0].Timestamp.Local().Format(time.Stamp) + "  "
			}
			fmt.Printf("  %s%d attempts, %s backoff, %s\n",
				when, chain.AttemptCount(), chain.TotalDelay().Round(time.Millisecond), status)
		}
		fmt.Println()
	}
	return nil
}
