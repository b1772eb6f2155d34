package analyzer

import (
	"testing"
	"time"

	"github.com/quarryhill/cclens/internal/schema"
)

func summaryAt(day string, cost float64, tokens int64) *SessionSummary {
	ts, _ := time.Parse("2006-01-02", day)
	return &SessionSummary{
		SessionID:         day,
		FirstTimestamp:    ts.Add(9 * time.Hour),
		LastTimestamp:     ts.Add(10 * time.Hour),
		Records:           3,
		UserMessages:      1,
		AssistantMessages: 1,
		Turns:             1,
		Generation:        "v2.1",
		CostUSD:           cost,
		Tokens:            schema.Usage{InputTokens: tokens, OutputTokens: tokens / 10},
		Tools:             []ToolStat{{Name: "Bash", Invocations: 2, Errors: 1}},
		Models: []ModelUsage{{
			Model:    "claude-sonnet-4-5",
			Family:   "sonnet",
			Messages: 1,
			Usage:    schema.Usage{InputTokens: tokens, OutputTokens: tokens / 10},
			CostUSD:  cost,
		}},
	}
}

func TestAggregateTotals(t *testing.T) {
	r := Aggregate([]*SessionSummary{
		summaryAt("2026-03-01", 1.0, 1000),
		summaryAt("2026-03-01", 0.5, 500),
		summaryAt("2026-03-03", 2.0, 2000),
	})

	if r.Sessions != 3 || r.Records != 9 || r.Turns != 3 {
		t.Errorf("totals = sessions %d records %d turns %d", r.Sessions, r.Records, r.Turns)
	}
	if r.CostUSD != 3.5 {
		t.Errorf("CostUSD = %v, want 3.5", r.CostUSD)
	}
	if r.Tokens.InputTokens != 3500 {
		t.Errorf("InputTokens = %d, want 3500", r.Tokens.InputTokens)
	}
	if r.Generations["v2.1"] != 3 {
		t.Errorf("Generations = %v", r.Generations)
	}

	if len(r.Tools) != 1 || r.Tools[0].Invocations != 6 || r.Tools[0].Errors != 3 {
		t.Errorf("Tools = %+v", r.Tools)
	}
	if len(r.Models) != 1 || r.Models[0].Messages != 3 {
		t.Errorf("Models = %+v", r.Models)
	}
}

func TestAggregateDailyFill(t *testing.T) {
	r := Aggregate([]*SessionSummary{
		summaryAt("2026-03-01", 1.0, 1000),
		summaryAt("2026-03-03", 2.0, 2000),
	})

	if len(r.Daily) != 3 {
		t.Fatalf("Daily = %d rows, want 3", len(r.Daily))
	}
	if r.Daily[0].Date != "2026-03-01" || r.Daily[1].Date != "2026-03-02" || r.Daily[2].Date != "2026-03-03" {
		t.Errorf("Daily dates = %q %q %q", r.Daily[0].Date, r.Daily[1].Date, r.Daily[2].Date)
	}
	if r.Daily[1].Sessions != 0 || r.Daily[1].Tokens != 0 {
		t.Errorf("gap day not zero: %+v", r.Daily[1])
	}
	if r.Daily[2].CostUSD != 2.0 {
		t.Errorf("Daily[2].CostUSD = %v", r.Daily[2].CostUSD)
	}
}

func TestAggregateEmpty(t *testing.T) {
	r := Aggregate(nil)
	if r.Sessions != 0 || len(r.Daily) != 0 {
		t.Errorf("empty rollup = %+v", r)
	}
}
