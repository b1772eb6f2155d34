package analyzer

import (
	"sort"
	"time"

	"github.com/quarryhill/cclens/internal/billing"
	"github.com/quarryhill/cclens/internal/conversation"
	"github.com/quarryhill/cclens/internal/schema"
)

// ToolStat holds invocation counts for a single tool.
type ToolStat struct {
	Name        string `json:"name"`
	Invocations int    `json:"invocations"`
	Errors      int    `json:"errors"`
}

// ModelUsage holds per-model token and cost totals.
type ModelUsage struct {
	Model    string       `json:"model"`
	Family   string       `json:"family"`
	Messages int          `json:"messages"`
	Usage    schema.Usage `json:"usage"`
	CostUSD  float64      `json:"cost_usd"`
}

// SessionSummary is the per-session analysis result.
type SessionSummary struct {
	SessionID   string `json:"session_id"`
	ProjectHash string `json:"project_hash,omitempty"`
	Generation  string `json:"generation,omitempty"`

	FirstTimestamp time.Time     `json:"first_timestamp,omitzero"`
	LastTimestamp  time.Time     `json:"last_timestamp,omitzero"`
	Duration       time.Duration `json:"duration"`

	Records           int `json:"records"`
	UserMessages      int `json:"user_messages"`
	AssistantMessages int `json:"assistant_messages"`
	SystemRecords     int `json:"system_records"`
	Summaries         int `json:"summaries"`
	Snapshots         int `json:"snapshots"`
	Sidechains        int `json:"sidechains"`

	Turns        int `json:"turns"`
	BranchPoints int `json:"branch_points"`

	Tools  []ToolStat   `json:"tools,omitempty"`
	Models []ModelUsage `json:"models,omitempty"`
	Tokens schema.Usage `json:"tokens"`

	CostUSD float64 `json:"cost_usd"`

	RetryChains      int `json:"retry_chains"`
	RetriesRecovered int `json:"retries_recovered"`
}

// Summarize analyzes one session's records. An empty record slice yields
// an empty summary, not an error.
func Summarize(sessionID string, records []*schema.Record) *SessionSummary {
	sum := &SessionSummary{SessionID: sessionID, Records: len(records)}

	tools := make(map[string]*ToolStat)
	models := make(map[string]*ModelUsage)

	for _, rec := range records {
		if ts, ok := rec.Timestamp(); ok {
			if sum.FirstTimestamp.IsZero() || ts.Before(sum.FirstTimestamp) {
				sum.FirstTimestamp = ts
			}
			if ts.After(sum.LastTimestamp) {
				sum.LastTimestamp = ts
			}
		}
		if rec.IsSidechain {
			sum.Sidechains++
		}
		if rec.Version != "" && sum.Generation == "" {
			sum.Generation = schema.DetectGeneration(rec.Version).Name
		}

		switch rec.Kind {
		case schema.KindUser:
			sum.UserMessages++
		case schema.KindAssistant:
			sum.AssistantMessages++
			for _, block := range rec.Content() {
				if block.Type != "tool_use" {
					continue
				}
				st := tools[block.Name]
				if st == nil {
					st = &ToolStat{Name: block.Name}
					tools[block.Name] = st
				}
				st.Invocations++
			}
			if u := rec.Usage(); u != nil {
				sum.Tokens.Add(u)
				model := rec.Message.Model
				mu := models[model]
				if mu == nil {
					mu = &ModelUsage{Model: model, Family: billing.NormalizeModelName(model)}
					models[model] = mu
				}
				mu.Messages++
				mu.Usage.Add(u)
			}
		case schema.KindSystem:
			sum.SystemRecords++
		case schema.KindSummary:
			sum.Summaries++
		case schema.KindFileHistorySnapshot:
			sum.Snapshots++
		}
	}

	conv := conversation.Build(records)
	sum.Turns = len(conv.Turns())
	sum.BranchPoints = len(conv.BranchPoints())

	// Tool errors come from paired tool_use / tool_result links.
	for _, rec := range records {
		if rec.Kind != schema.KindUser {
			continue
		}
		for _, block := range rec.Content() {
			if block.Type != "tool_result" || !block.IsError {
				continue
			}
			if name, ok := toolNameFor(conv, block.ToolUseID); ok {
				if st := tools[name]; st != nil {
					st.Errors++
				}
			}
		}
	}

	report := conversation.TrackRetries(records)
	sum.RetryChains = len(report.Chains)
	for _, chain := range report.Chains {
		if chain.Recovered() {
			sum.RetriesRecovered++
		}
	}

	for _, st := range tools {
		sum.Tools = append(sum.Tools, *st)
	}
	sort.Slice(sum.Tools, func(i, j int) bool {
		if sum.Tools[i].Invocations != sum.Tools[j].Invocations {
			return sum.Tools[i].Invocations > sum.Tools[j].Invocations
		}
		return sum.Tools[i].Name < sum.Tools[j].Name
	})

	for _, mu := range models {
		mu.CostUSD = billing.DefaultPrice(mu.Model, mu.Usage)
		sum.CostUSD += mu.CostUSD
		sum.Models = append(sum.Models, *mu)
	}
	sort.Slice(sum.Models, func(i, j int) bool {
		return sum.Models[i].Usage.TotalTokens() > sum.Models[j].Usage.TotalTokens()
	})

	if !sum.FirstTimestamp.IsZero() {
		sum.Duration = sum.LastTimestamp.Sub(sum.FirstTimestamp)
	}
	return sum
}

// toolNameFor resolves a tool_result ID back to the tool name via the
// conversation's tool links.
func toolNameFor(conv *conversation.Conversation, toolUseID string) (string, bool) {
	ownerUUID, ok := conv.ToolLink(toolUseID)
	if !ok {
		return "", false
	}
	owner := conv.Node(ownerUUID)
	if owner == nil {
		return "", false
	}
	for _, block := range owner.Record.Content() {
		if block.Type == "tool_use" && block.ID == toolUseID {
			return block.Name, true
		}
	}
	return "", false
}
