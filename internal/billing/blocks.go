// Package billing aggregates token usage over aligned fixed-length
// wall-clock windows, the granularity the service bills in.
package billing

import (
	"sort"
	"time"

	"github.com/quarryhill/cclens/internal/schema"
)

// DefaultWindowHours is the billing window length the service uses.
const DefaultWindowHours = 5

// Status labels a block relative to now.
type Status string

// Block statuses.
const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// PriceFunc estimates the cost of one assistant response. Pricing tables
// are caller territory; DefaultPrice provides a reasonable one.
type PriceFunc func(model string, usage schema.Usage) float64

// Options configures aggregation.
type Options struct {
	// WindowHours is the block length; zero means DefaultWindowHours.
	WindowHours int
	// Now anchors the active-block decision; zero means time.Now.
	Now func() time.Time
	// Price estimates per-response cost; nil disables cost estimation.
	Price PriceFunc
}

// Block is one aligned billing window with its accumulated usage.
type Block struct {
	Start  time.Time
	End    time.Time
	Status Status

	InputTokens         int64
	OutputTokens        int64
	CacheReadTokens     int64
	CacheCreationTokens int64

	MessageCount    int
	ToolInvocations int

	EstimatedCost float64
	CostEstimated bool
}

// TotalTokens returns input plus output tokens.
func (b *Block) TotalTokens() int64 {
	return b.InputTokens + b.OutputTokens
}

// Remaining returns how much of the block is left at now; zero for blocks
// that are over.
func (b *Block) Remaining(now time.Time) time.Duration {
	if !now.Before(b.End) {
		return 0
	}
	return b.End.Sub(now)
}

// Aggregate partitions records into aligned UTC windows and accumulates
// usage. Records without a timestamp are skipped. Blocks come back sorted
// by start time.
func Aggregate(records []*schema.Record, opts Options) []Block {
	window := opts.WindowHours
	if window <= 0 {
		window = DefaultWindowHours
	}
	now := time.Now()
	if opts.Now != nil {
		now = opts.Now()
	}

	blocks := make(map[time.Time]*Block)

	for _, rec := range records {
		ts, ok := rec.Timestamp()
		if !ok {
			continue
		}
		start := BlockStart(ts, window)
		b, ok := blocks[start]
		if !ok {
			b = &Block{
				Start:         start,
				End:           start.Add(time.Duration(window) * time.Hour),
				CostEstimated: opts.Price != nil,
			}
			blocks[start] = b
		}

		b.MessageCount++

		if rec.Kind == schema.KindAssistant {
			if u := rec.Usage(); u != nil {
				b.InputTokens += u.InputTokens
				b.OutputTokens += u.OutputTokens
				b.CacheReadTokens += u.CacheReadInputTokens
				b.CacheCreationTokens += u.CacheCreationInputTokens
				if opts.Price != nil {
					b.EstimatedCost += opts.Price(rec.Message.Model, *u)
				}
			}
		}
		b.ToolInvocations += len(rec.Content().ToolUses())
	}

	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		if !now.Before(b.Start) && now.Before(b.End) {
			b.Status = StatusActive
		} else {
			b.Status = StatusCompleted
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// BlockStart aligns a timestamp to the start of its billing window:
// (hour_of_day / window) * window on the UTC clock.
func BlockStart(ts time.Time, windowHours int) time.Time {
	utc := ts.UTC()
	hour := (utc.Hour() / windowHours) * windowHours
	return time.Date(utc.Year(), utc.Month(), utc.Day(), hour, 0, 0, 0, time.UTC)
}
