package analyzer

import (
	"testing"
	"time"

	"github.com/quarryhill/cclens/internal/schema"
)

func rec(t *testing.T, line string) *schema.Record {
	t.Helper()
	r, err := schema.DecodeRecord([]byte(line))
	if err != nil {
		t.Fatalf("DecodeRecord(%s): %v", line, err)
	}
	return r
}

func TestSummarizeCountsAndTokens(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"user","uuid":"u1","timestamp":"2026-03-01T10:00:00Z","version":"2.1.9","message":{"role":"user","content":"list files"}}`),
		rec(t, `{"type":"assistant","uuid":"a1","parentUuid":"u1","timestamp":"2026-03-01T10:00:05Z","message":{"id":"m1","model":"claude-sonnet-4-5","content":[{"type":"tool_use","id":"t1","name":"Bash","input":{"command":"ls"}}],"usage":{"input_tokens":100,"output_tokens":20}}}`),
		rec(t, `{"type":"user","uuid":"u2","parentUuid":"a1","timestamp":"2026-03-01T10:00:06Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":"a.txt","is_error":true}]}}`),
		rec(t, `{"type":"assistant","uuid":"a2","parentUuid":"u2","timestamp":"2026-03-01T10:00:10Z","message":{"id":"m2","model":"claude-sonnet-4-5","content":[{"type":"text","text":"done"}],"usage":{"input_tokens":50,"output_tokens":10}}}`),
		rec(t, `{"type":"summary","summary":"listing files","leafUuid":"a2"}`),
	}

	sum := Summarize("sess", records)

	if sum.Records != 5 {
		t.Errorf("Records = %d, want 5", sum.Records)
	}
	if sum.UserMessages != 2 || sum.AssistantMessages != 2 || sum.Summaries != 1 {
		t.Errorf("message counts = %d/%d/%d", sum.UserMessages, sum.AssistantMessages, sum.Summaries)
	}
	if sum.Generation != "v2.1" {
		t.Errorf("Generation = %q, want v2.1", sum.Generation)
	}
	if sum.Tokens.InputTokens != 150 || sum.Tokens.OutputTokens != 30 {
		t.Errorf("Tokens = %+v", sum.Tokens)
	}
	if sum.Duration != 10*time.Second {
		t.Errorf("Duration = %v, want 10s", sum.Duration)
	}
	if sum.Turns != 1 {
		t.Errorf("Turns = %d, want 1", sum.Turns)
	}
	if sum.CostUSD <= 0 {
		t.Errorf("CostUSD = %v, want > 0", sum.CostUSD)
	}

	if len(sum.Tools) != 1 {
		t.Fatalf("Tools = %+v, want one entry", sum.Tools)
	}
	if sum.Tools[0].Name != "Bash" || sum.Tools[0].Invocations != 1 || sum.Tools[0].Errors != 1 {
		t.Errorf("Tools[0] = %+v", sum.Tools[0])
	}

	if len(sum.Models) != 1 {
		t.Fatalf("Models = %+v, want one entry", sum.Models)
	}
	if sum.Models[0].Family != "sonnet" || sum.Models[0].Messages != 2 {
		t.Errorf("Models[0] = %+v", sum.Models[0])
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize("empty", nil)
	if sum.Records != 0 || sum.Turns != 0 || len(sum.Tools) != 0 {
		t.Errorf("empty summary = %+v", sum)
	}
	if !sum.FirstTimestamp.IsZero() {
		t.Errorf("FirstTimestamp = %v, want zero", sum.FirstTimestamp)
	}
}

func TestSummarizeRetries(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"user","uuid":"u1","timestamp":"2026-03-01T10:00:00Z","message":{"role":"user","content":"go"}}`),
		rec(t, `{"type":"system","subtype":"api_error","uuid":"s1","parentUuid":"u1","timestamp":"2026-03-01T10:00:01Z","retryAttempt":1,"maxRetries":3,"retryInMs":1000}`),
		rec(t, `{"type":"system","subtype":"api_error","uuid":"s2","parentUuid":"s1","timestamp":"2026-03-01T10:00:03Z","retryAttempt":2,"maxRetries":3,"retryInMs":2000}`),
		rec(t, `{"type":"assistant","uuid":"a1","parentUuid":"s2","timestamp":"2026-03-01T10:00:06Z","message":{"id":"m1","model":"claude-opus-4-6","content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":10,"output_tokens":5}}}`),
	}

	sum := Summarize("sess", records)
	if sum.RetryChains != 1 {
		t.Fatalf("RetryChains = %d, want 1", sum.RetryChains)
	}
	if sum.RetriesRecovered != 1 {
		t.Errorf("RetriesRecovered = %d, want 1", sum.RetriesRecovered)
	}
	if sum.SystemRecords != 2 {
		t.Errorf("SystemRecords = %d, want 2", sum.SystemRecords)
	}
}

func TestSummarizeSidechains(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"user","uuid":"u1","isSidechain":true,"message":{"role":"user","content":"sub task"}}`),
		rec(t, `{"type":"assistant","uuid":"a1","parentUuid":"u1","isSidechain":true,"message":{"id":"m1","model":"claude-haiku-4-5","content":[{"type":"text","text":"ok"}]}}`),
	}
	sum := Summarize("side", records)
	if sum.Sidechains != 2 {
		t.Errorf("Sidechains = %d, want 2", sum.Sidechains)
	}
}
