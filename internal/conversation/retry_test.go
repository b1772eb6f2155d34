package conversation

import (
	"testing"
	"time"

	"github.com/quarryhill/cclens/internal/schema"
)

func TestTrackRetries_SingleChain(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"assistant","uuid":"a1","message":{"id":"m1","content":[{"type":"text","text":"x"}]}}`),
		rec(t, `{"type":"system","uuid":"e1","parentUuid":"a1","subtype":"api_error","retryAttempt":1,"maxRetries":10,"retryInMs":1000,"timestamp":"2026-01-15T10:00:00Z"}`),
		rec(t, `{"type":"system","uuid":"e2","parentUuid":"e1","subtype":"api_error","retryAttempt":2,"maxRetries":10,"retryInMs":2000,"timestamp":"2026-01-15T10:00:01Z"}`),
		rec(t, `{"type":"system","uuid":"e3","parentUuid":"e2","subtype":"api_error","retryAttempt":3,"maxRetries":10,"retryInMs":4000,"timestamp":"2026-01-15T10:00:03Z"}`),
	}

	report := TrackRetries(records)
	if report.TotalChains != 1 {
		t.Fatalf("TotalChains = %d, want 1", report.TotalChains)
	}
	chain := report.Chains[0]
	if chain.RootUUID != "a1" {
		t.Errorf("RootUUID = %q, want a1 (parent of the first attempt)", chain.RootUUID)
	}
	if chain.AttemptCount() != 3 {
		t.Errorf("AttemptCount = %d, want 3", chain.AttemptCount())
	}
	if got := chain.TotalDelay(); got != 7*time.Second {
		t.Errorf("TotalDelay = %v, want 7s", got)
	}
	if !chain.Recovered() {
		t.Error("chain stopped at attempt 3 of 10; should count as recovered")
	}
	if report.SuccessfulRecoveries != 1 {
		t.Errorf("SuccessfulRecoveries = %d", report.SuccessfulRecoveries)
	}
	if report.MaxRetriesSeen != 3 {
		t.Errorf("MaxRetriesSeen = %d", report.MaxRetriesSeen)
	}
	if report.SuccessRate() != 1 {
		t.Errorf("SuccessRate = %v", report.SuccessRate())
	}
}

func TestTrackRetries_ExhaustedChainNotRecovered(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"system","uuid":"e1","subtype":"api_error","retryAttempt":1,"maxRetries":2,"retryInMs":100,"timestamp":"2026-01-15T10:00:00Z"}`),
		rec(t, `{"type":"system","uuid":"e2","parentUuid":"e1","subtype":"api_error","retryAttempt":2,"maxRetries":2,"retryInMs":200,"timestamp":"2026-01-15T10:00:01Z"}`),
	}

	report := TrackRetries(records)
	if report.TotalChains != 1 {
		t.Fatalf("TotalChains = %d", report.TotalChains)
	}
	if report.Chains[0].Recovered() {
		t.Error("exhausted chain must not count as recovered")
	}
	if report.Chains[0].RootUUID != "e1" {
		t.Errorf("RootUUID = %q, want e1 (no parent, keyed by itself)", report.Chains[0].RootUUID)
	}
	if report.SuccessRate() != 0 {
		t.Errorf("SuccessRate = %v, want 0", report.SuccessRate())
	}
}

func TestTrackRetries_TwoIndependentChains(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"system","uuid":"e1","subtype":"api_error","retryAttempt":1,"maxRetries":10,"timestamp":"2026-01-15T10:00:00Z"}`),
		rec(t, `{"type":"system","uuid":"f1","subtype":"api_error","retryAttempt":1,"maxRetries":10,"timestamp":"2026-01-15T11:00:00Z"}`),
		rec(t, `{"type":"system","uuid":"f2","parentUuid":"f1","subtype":"api_error","retryAttempt":2,"maxRetries":10,"timestamp":"2026-01-15T11:00:02Z"}`),
	}

	report := TrackRetries(records)
	if report.TotalChains != 2 {
		t.Fatalf("TotalChains = %d, want 2", report.TotalChains)
	}
	if report.TotalRetries != 3 {
		t.Errorf("TotalRetries = %d, want 3", report.TotalRetries)
	}
	if n := report.Chains[1].AttemptCount(); n != 2 {
		t.Errorf("second chain attempts = %d, want 2", n)
	}
}

func TestTrackRetries_OrphanAttemptOpensChain(t *testing.T) {
	// Attempt 3 with no visible attempt 1: the start may predate the file.
	records := []*schema.Record{
		rec(t, `{"type":"system","uuid":"e3","parentUuid":"gone","subtype":"api_error","retryAttempt":3,"maxRetries":10,"timestamp":"2026-01-15T10:00:00Z"}`),
	}

	report := TrackRetries(records)
	if report.TotalChains != 1 {
		t.Fatalf("TotalChains = %d, want 1", report.TotalChains)
	}
	if report.Chains[0].RootUUID != "e3" {
		t.Errorf("RootUUID = %q", report.Chains[0].RootUUID)
	}
}

func TestTrackRetries_IgnoresOtherSystemRecords(t *testing.T) {
	records := []*schema.Record{
		rec(t, `{"type":"system","uuid":"s1","subtype":"turn_duration","timestamp":"2026-01-15T10:00:00Z"}`),
		rec(t, `{"type":"system","uuid":"s2","subtype":"api_error","timestamp":"2026-01-15T10:00:01Z"}`),
	}

	report := TrackRetries(records)
	if report.TotalChains != 0 {
		t.Errorf("TotalChains = %d, want 0 (no retryAttempt field)", report.TotalChains)
	}
	if report.SuccessRate() != 1 {
		t.Errorf("SuccessRate with no chains = %v, want 1", report.SuccessRate())
	}
}
