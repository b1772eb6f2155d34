package app

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/output"
)

var (
	sessionsFlagSort    string
	sessionsFlagProject string
	sessionsFlagDays    int
	sessionsFlagLimit   int
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "List, filter, and inspect individual sessions",
	Long: `Browse sessions sorted by various criteria. Useful for finding
expensive sessions, drilling into tool errors, or understanding where
tokens went.

Examples:
  cclens sessions                      # recent sessions
  cclens sessions --sort cost          # most expensive first
  cclens sessions --sort tokens        # most tokens first
  cclens sessions --project myapp      # filter by project path
  cclens sessions --days 7 --limit 5   # last 7 days, top 5
  cclens sessions abc12345             # inspect one session by ID prefix`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSessions,
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsFlagSort, "sort", "recent", "Sort by: recent, cost, tokens, duration, errors")
	sessionsCmd.Flags().StringVar(&sessionsFlagProject, "project", "", "Filter to sessions matching project path")
	sessionsCmd.Flags().IntVar(&sessionsFlagDays, "days", 30, "Number of days to look back")
	sessionsCmd.Flags().IntVar(&sessionsFlagLimit, "limit", 15, "Maximum sessions to display")
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	summaries, _, err := loadSummaries(cfg)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return runInspect(args[0], summaries)
	}

	cutoff := time.Now().AddDate(0, 0, -sessionsFlagDays)
	var rows []*analyzer.SessionSummary
	for _, s := range summaries {
		if !s.FirstTimestamp.IsZero() && s.FirstTimestamp.Before(cutoff) {
			continue
		}
		if sessionsFlagProject != "" &&
			!strings.Contains(strings.ToLower(s.ProjectHash), strings.ToLower(sessionsFlagProject)) {
			continue
		}
		rows = append(rows, s)
	}

	if len(rows) == 0 {
		fmt.Println("No sessions found matching filters.")
		return nil
	}

	switch sessionsFlagSort {
	case "cost":
		sort.Slice(rows, func(i, j int) bool { return rows[i].CostUSD > rows[j].CostUSD })
	case "tokens":
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].Tokens.TotalTokens() > rows[j].Tokens.TotalTokens()
		})
	case "duration":
		sort.Slice(rows, func(i, j int) bool { return rows[i].Duration > rows[j].Duration })
	case "errors":
		sort.Slice(rows, func(i, j int) bool { return toolErrors(rows[i]) > toolErrors(rows[j]) })
	default: // "recent"
		sort.Slice(rows, func(i, j int) bool { return rows[i].LastTimestamp.After(rows[j].LastTimestamp) })
	}

	if sessionsFlagLimit > 0 && len(rows) > sessionsFlagLimit {
		rows = rows[:sessionsFlagLimit]
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	renderSessions(rows)
	return nil
}

func toolErrors(s *analyzer.SessionSummary) int {
	total := 0
	for _, t := range s.Tools {
		total += t.Errors
	}
	return total
}

func renderSessions(rows []*analyzer.SessionSummary) {
	fmt.Println(output.StyleHeader.Render("Sessions"))
	fmt.Println()

	tbl := output.NewTable("SESSION", "PROJECT", "START", "TURNS", "TOKENS", "COST", "ERRORS")
	tbl.AlignRight(3, 4, 5, 6)
	for _, s := range rows {
		start := "-"
		if !s.FirstTimestamp.IsZero() {
			start = s.FirstTimestamp.Local().Format("Jan 02 15:04")
		}
		tbl.AddRow(
			shortID(s.SessionID),
			shortProject(s.ProjectHash),
			start,
			fmt.Sprintf("%d", s.Turns),
			formatTokens(s.Tokens.TotalTokens()),
			fmt.Sprintf("$%.2f", s.CostUSD),
			fmt.Sprintf("%d", toolErrors(s)),
		)
	}
	tbl.Print()
}

// runInspect finds a session by full ID or prefix and renders a detailed view.
func runInspect(idOrPrefix string, summaries []*analyzer.SessionSummary) error {
	var match *analyzer.SessionSummary
	for _, s := range summaries {
		if s.SessionID == idOrPrefix {
			match = s
			break
		}
		if strings.HasPrefix(s.SessionID, idOrPrefix) {
			if match != nil {
				return fmt.Errorf("session prefix %q is ambiguous", idOrPrefix)
			}
			match = s
		}
	}
	if match == nil {
		return fmt.Errorf("no session matching %q", idOrPrefix)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(match)
	}

	fmt.Println(output.StyleHeader.Render("Session " + match.SessionID))
	fmt.Println()
	printMetric("Project", shortProject(match.ProjectHash))
	printMetric("Generation", match.Generation)
	if !match.FirstTimestamp.IsZero() {
		printMetric("Started", match.FirstTimestamp.Local().Format(time.RFC1123))
		printMetric("Duration", match.Duration.Round(time.Second).String())
	}
	printMetric("Records", fmt.Sprintf("%d", match.Records))
	printMetric("Turns", fmt.Sprintf("%d", match.Turns))
	printMetric("Branch points", fmt.Sprintf("%d", match.BranchPoints))
	printMetric("Sidechain records", fmt.Sprintf("%d", match.Sidechains))
	printMetric("Tokens", formatTokens(match.Tokens.TotalTokens()))
	printMetric("Cache reads", formatTokens(match.Tokens.CacheReadInputTokens))
	printMetric("Cost", fmt.Sprintf("$%.4f", match.CostUSD))
	if match.RetryChains > 0 {
		printMetric("Retry chains", fmt.Sprintf("%d (%d recovered)", match.RetryChains, match.RetriesRecovered))
	}

	if len(match.Tools) > 0 {
		fmt.Println()
		fmt.Println(output.StyleHeader.Render("Tools"))
		tbl := output.NewTable("TOOL", "CALLS", "ERRORS")
		tbl.AlignRight(1, 2)
		for _, t := range match.Tools {
			tbl.AddRow(t.Name, fmt.Sprintf("%d", t.Invocations), fmt.Sprintf("%d", t.Errors))
		}
		tbl.Print()
	}

	if len(match.Models) > 0 {
		fmt.Println()
		fmt.Println(output.StyleHeader.Render("Models"))
		tbl := output.NewTable("MODEL", "MESSAGES", "TOKENS", "COST")
		tbl.AlignRight(1, 2, 3)
		for _, mu := range match.Models {
			tbl.AddRow(mu.Model, fmt.Sprintf("%d", mu.Messages),
				formatTokens(mu.Usage.TotalTokens()), fmt.Sprintf("$%.4f", mu.CostUSD))
		}
		tbl.Print()
	}

	return nil
}

func printMetric(label, value string) {
	fmt.Println(output.StyleLabel.Render(label) + output.StyleValue.Render(value))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortProject(hash string) string {
	if hash == "" {
		return "-"
	}
	parts := strings.Split(strings.TrimPrefix(hash, "-"), "-")
	if len(parts) == 0 {
		return hash
	}
	return parts[len(parts)-1]
}

func formatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}
