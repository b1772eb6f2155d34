package conversation

import (
	"time"

	"github.com/quarryhill/cclens/internal/schema"
)

// RetryAttempt is one api_error system record inside a retry chain.
type RetryAttempt struct {
	UUID       string
	Attempt    int
	MaxRetries int
	RetryInMs  int64
	Timestamp  time.Time
}

// RetryChain is the sequence of attempts arising from one logical request.
// The chain is keyed by the uuid of the first attempt's parent when it has
// one, else by the first attempt itself.
type RetryChain struct {
	RootUUID string
	Attempts []RetryAttempt
}

// AttemptCount returns the number of attempts in the chain.
func (rc *RetryChain) AttemptCount() int {
	return len(rc.Attempts)
}

// TotalDelay sums the backoff delays announced across the chain.
func (rc *RetryChain) TotalDelay() time.Duration {
	var ms int64
	for _, a := range rc.Attempts {
		ms += a.RetryInMs
	}
	return time.Duration(ms) * time.Millisecond
}

// Recovered reports whether the chain stopped retrying before exhausting
// its budget, i.e. an attempt succeeded. The log never records success
// explicitly, so this is the strongest claim it supports.
func (rc *RetryChain) Recovered() bool {
	if len(rc.Attempts) == 0 {
		return false
	}
	last := rc.Attempts[len(rc.Attempts)-1]
	return last.MaxRetries > 0 && last.Attempt < last.MaxRetries
}

// RetryReport aggregates the retry chains of one session.
type RetryReport struct {
	Chains               []*RetryChain
	TotalChains          int
	TotalRetries         int
	MaxRetriesSeen       int
	SuccessfulRecoveries int
}

// SuccessRate returns recoveries over chains, in [0, 1]. With no chains the
// rate is 1.
func (r *RetryReport) SuccessRate() float64 {
	if r.TotalChains == 0 {
		return 1
	}
	return float64(r.SuccessfulRecoveries) / float64(r.TotalChains)
}

// TrackRetries reconstructs API-error retry chains from a session's records.
// An attempt with retryAttempt == 1 opens a chain; subsequent attempts
// attach to the chain whose root or prior attempt their parentUuid names.
// Attempts with no resolvable chain open one implicitly (the first attempt
// may predate the file).
func TrackRetries(records []*schema.Record) *RetryReport {
	report := &RetryReport{}
	byKey := make(map[string]*RetryChain)

	for _, rec := range records {
		if rec.Kind != schema.KindSystem || rec.Subtype != schema.SubtypeAPIError {
			continue
		}
		if rec.RetryAttempt <= 0 {
			continue
		}

		ts, _ := rec.Timestamp()
		attempt := RetryAttempt{
			UUID:       rec.UUID,
			Attempt:    rec.RetryAttempt,
			MaxRetries: rec.MaxRetries,
			RetryInMs:  rec.RetryInMs,
			Timestamp:  ts,
		}

		var chain *RetryChain
		if rec.RetryAttempt == 1 {
			root := rec.ParentUUID
			if root == "" {
				root = rec.UUID
			}
			chain = &RetryChain{RootUUID: root}
			report.Chains = append(report.Chains, chain)
			byKey[root] = chain
		} else if found, ok := byKey[rec.ParentUUID]; ok {
			chain = found
		} else {
			chain = &RetryChain{RootUUID: rec.UUID}
			report.Chains = append(report.Chains, chain)
		}

		chain.Attempts = append(chain.Attempts, attempt)
		if rec.UUID != "" {
			byKey[rec.UUID] = chain
		}

		report.TotalRetries++
		if rec.RetryAttempt > report.MaxRetriesSeen {
			report.MaxRetriesSeen = rec.RetryAttempt
		}
	}

	report.TotalChains = len(report.Chains)
	for _, chain := range report.Chains {
		if chain.Recovered() {
			report.SuccessfulRecoveries++
		}
	}
	return report
}
