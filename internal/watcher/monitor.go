package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/discover"
	"github.com/quarryhill/cclens/internal/parser"
)

// State captures a point-in-time view of all session data.
type State struct {
	Timestamp      time.Time
	Sessions       int
	ActiveSessions int
	TotalCost      float64
	SkippedLines   int
	LatestSession  string
}

// Alert represents a notable event detected by the monitor.
type Alert struct {
	Level   string // "info", "warning", "critical"
	Title   string
	Message string
	Time    time.Time
}

// Monitor polls session data at a regular interval and emits alerts when
// notable changes are detected.
type Monitor struct {
	home          string
	interval      time.Duration
	alertFn       func(Alert)
	previous      *State
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts
	parserOpts    parser.Options

	// BudgetUSD is the total cost threshold; 0 disables the budget alert.
	BudgetUSD float64
}

// NewMonitor creates a Monitor over the given data directory.
func NewMonitor(home string, interval time.Duration, opts parser.Options, alertFn func(Alert)) *Monitor {
	return &Monitor{
		home:          home,
		interval:      interval,
		alertFn:       alertFn,
		parserOpts:    opts,
		lastAlertKeys: make(map[string]bool),
	}
}

// Run starts the poll loop. It takes an initial snapshot, then checks at
// every interval. Blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	initial, err := m.Snapshot()
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	m.previous = initial

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, a := range m.Check() {
				if m.alertFn != nil {
					m.alertFn(a)
				}
			}
		}
	}
}

// Check performs a single cycle: snapshot, compare against the previous
// state, and return new alerts. Identical alerts are suppressed until the
// underlying data changes.
func (m *Monitor) Check() []Alert {
	curr, err := m.Snapshot()
	if err != nil {
		return []Alert{{
			Level:   "warning",
			Title:   "Snapshot failed",
			Message: fmt.Sprintf("Could not read session data: %v", err),
			Time:    time.Now(),
		}}
	}

	var raw []Alert
	if m.previous != nil {
		raw = Compare(m.previous, curr)
	}

	if m.BudgetUSD > 0 && curr.TotalCost > m.BudgetUSD {
		raw = append(raw, Alert{
			Level:   "warning",
			Title:   "Cost budget exceeded",
			Message: fmt.Sprintf("Estimated $%.2f total (budget: $%.2f)", curr.TotalCost, m.BudgetUSD),
			Time:    time.Now(),
		})
	}

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !m.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	m.lastAlertKeys = currentKeys

	m.previous = curr
	return alerts
}

// Snapshot scans and summarizes every session under the data directory.
func (m *Monitor) Snapshot() (*State, error) {
	state := &State{Timestamp: time.Now()}

	files, err := discover.ListSessions(m.home)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	state.Sessions = len(files)
	if len(files) > 0 {
		state.LatestSession = files[0].SessionID
	}
	for _, f := range files {
		if f.Activity != parser.Inactive {
			state.ActiveSessions++
		}
	}

	loaded, err := discover.LoadSessions(files, m.parserOpts)
	if err != nil {
		return nil, fmt.Errorf("loading sessions: %w", err)
	}
	for _, ls := range loaded {
		if ls.Err != nil {
			continue
		}
		state.SkippedLines += ls.Stats.LinesSkipped
		sum := analyzer.Summarize(ls.File.SessionID, ls.Records)
		state.TotalCost += sum.CostUSD
	}

	return state, nil
}

// Compare detects notable changes between two states and returns alerts.
func Compare(prev, curr *State) []Alert {
	var alerts []Alert
	now := time.Now()

	if curr.Sessions > prev.Sessions {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "New session",
			Message: fmt.Sprintf("%d new session(s), latest %s", curr.Sessions-prev.Sessions, curr.LatestSession),
			Time:    now,
		})
	}

	if curr.ActiveSessions > 0 && prev.ActiveSessions == 0 {
		alerts = append(alerts, Alert{
			Level:   "info",
			Title:   "Session activity",
			Message: fmt.Sprintf("%d session(s) currently active", curr.ActiveSessions),
			Time:    now,
		})
	}

	if curr.SkippedLines > prev.SkippedLines {
		alerts = append(alerts, Alert{
			Level:   "warning",
			Title:   "Malformed log lines",
			Message: fmt.Sprintf("%d new unparseable line(s) since last check", curr.SkippedLines-prev.SkippedLines),
			Time:    now,
		})
	}

	return alerts
}
