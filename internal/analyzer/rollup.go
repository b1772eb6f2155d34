package analyzer

import (
	"sort"
	"time"

	"github.com/quarryhill/cclens/internal/schema"
)

// DailyActivity is one day's aggregate usage across all sessions.
type DailyActivity struct {
	Date     string  `json:"date"`
	Sessions int     `json:"sessions"`
	Messages int     `json:"messages"`
	Tokens   int64   `json:"tokens"`
	CostUSD  float64 `json:"cost_usd"`
}

// Rollup is the cross-session aggregate.
type Rollup struct {
	Sessions int `json:"sessions"`
	Records  int `json:"records"`
	Turns    int `json:"turns"`

	Tokens  schema.Usage `json:"tokens"`
	CostUSD float64      `json:"cost_usd"`

	Tools  []ToolStat   `json:"tools,omitempty"`
	Models []ModelUsage `json:"models,omitempty"`

	// Daily covers every calendar day from the earliest session to the
	// latest, UTC, with zero rows for inactive days.
	Daily []DailyActivity `json:"daily,omitempty"`

	// Generations counts sessions per detected schema generation.
	Generations map[string]int `json:"generations,omitempty"`
}

// Aggregate rolls per-session summaries up into a single cross-session
// view.
func Aggregate(summaries []*SessionSummary) Rollup {
	r := Rollup{
		Sessions:    len(summaries),
		Generations: make(map[string]int),
	}

	tools := make(map[string]*ToolStat)
	models := make(map[string]*ModelUsage)
	daily := make(map[string]*DailyActivity)
	var minDay, maxDay time.Time

	for _, s := range summaries {
		r.Records += s.Records
		r.Turns += s.Turns
		r.Tokens.Add(&s.Tokens)
		r.CostUSD += s.CostUSD
		if s.Generation != "" {
			r.Generations[s.Generation]++
		}

		for _, st := range s.Tools {
			agg := tools[st.Name]
			if agg == nil {
				agg = &ToolStat{Name: st.Name}
				tools[st.Name] = agg
			}
			agg.Invocations += st.Invocations
			agg.Errors += st.Errors
		}
		for _, mu := range s.Models {
			agg := models[mu.Model]
			if agg == nil {
				agg = &ModelUsage{Model: mu.Model, Family: mu.Family}
				models[mu.Model] = agg
			}
			agg.Messages += mu.Messages
			agg.Usage.Add(&mu.Usage)
			agg.CostUSD += mu.CostUSD
		}

		if s.FirstTimestamp.IsZero() {
			continue
		}
		day := s.FirstTimestamp.UTC().Truncate(24 * time.Hour)
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if day.After(maxDay) {
			maxDay = day
		}
		key := day.Format("2006-01-02")
		d := daily[key]
		if d == nil {
			d = &DailyActivity{Date: key}
			daily[key] = d
		}
		d.Sessions++
		d.Messages += s.UserMessages + s.AssistantMessages
		d.Tokens += s.Tokens.TotalTokens()
		d.CostUSD += s.CostUSD
	}

	for _, st := range tools {
		r.Tools = append(r.Tools, *st)
	}
	sort.Slice(r.Tools, func(i, j int) bool {
		if r.Tools[i].Invocations != r.Tools[j].Invocations {
			return r.Tools[i].Invocations > r.Tools[j].Invocations
		}
		return r.Tools[i].Name < r.Tools[j].Name
	})

	for _, mu := range models {
		r.Models = append(r.Models, *mu)
	}
	sort.Slice(r.Models, func(i, j int) bool {
		return r.Models[i].CostUSD > r.Models[j].CostUSD
	})

	// Fill the daily series so charts do not skip quiet days.
	if !minDay.IsZero() {
		for day := minDay; !day.After(maxDay); day = day.Add(24 * time.Hour) {
			key := day.Format("2006-01-02")
			if d, ok := daily[key]; ok {
				r.Daily = append(r.Daily, *d)
			} else {
				r.Daily = append(r.Daily, DailyActivity{Date: key})
			}
		}
	}

	return r
}
