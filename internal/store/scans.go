package store

import (
	"database/sql"
	"time"

	"github.com/quarryhill/cclens/internal/analyzer"
	"github.com/quarryhill/cclens/internal/billing"
	"github.com/quarryhill/cclens/internal/schema"
)

// Scan is one recorded run of the stats pipeline.
type Scan struct {
	ID      int64
	TakenAt time.Time
	Command string
	Version string
}

// SessionRow is a stored per-session summary belonging to a scan.
type SessionRow struct {
	ID     int64
	ScanID int64
	analyzer.SessionSummary
}

// BlockRow is a stored billing block belonging to a scan.
type BlockRow struct {
	ID           int64
	ScanID       int64
	Start        time.Time
	End          time.Time
	Status       string
	Messages     int
	InputTokens  int64
	OutputTokens int64
	CostUSD      float64
}

// CreateScan inserts a new scan and returns its ID.
func (db *DB) CreateScan(command, version string) (int64, error) {
	result, err := db.conn.Exec(
		"INSERT INTO scans (taken_at, command, version) VALUES (?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), command, version,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// LatestScan returns the most recent scan, or nil if none exist.
func (db *DB) LatestScan() (*Scan, error) {
	row := db.conn.QueryRow("SELECT id, taken_at, command, version FROM scans ORDER BY id DESC LIMIT 1")
	return scanScan(row)
}

// ScanN returns the Nth most recent scan (1 = latest, 2 = previous, etc.).
func (db *DB) ScanN(n int) (*Scan, error) {
	row := db.conn.QueryRow(
		"SELECT id, taken_at, command, version FROM scans ORDER BY id DESC LIMIT 1 OFFSET ?",
		n-1,
	)
	return scanScan(row)
}

func scanScan(row *sql.Row) (*Scan, error) {
	var s Scan
	var takenAt string
	err := row.Scan(&s.ID, &takenAt, &s.Command, &s.Version)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.TakenAt, _ = time.Parse(time.RFC3339, takenAt)
	return &s, nil
}

// InsertSessionSummary stores one session summary under a scan, including
// its tool rows.
func (db *DB) InsertSessionSummary(scanID int64, sum *analyzer.SessionSummary) error {
	_, err := db.conn.Exec(
		`INSERT INTO session_rows
		(scan_id, session_id, project, generation, first_ts, last_ts,
		 records, user_messages, assistant_messages, turns,
		 input_tokens, output_tokens, cache_read_tokens, cache_write_tokens,
		 cost_usd, retry_chains, retries_recovered)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scanID, sum.SessionID, sum.ProjectHash, sum.Generation,
		timeOrEmpty(sum.FirstTimestamp), timeOrEmpty(sum.LastTimestamp),
		sum.Records, sum.UserMessages, sum.AssistantMessages, sum.Turns,
		sum.Tokens.InputTokens, sum.Tokens.OutputTokens,
		sum.Tokens.CacheReadInputTokens, sum.Tokens.CacheCreationInputTokens,
		sum.CostUSD, sum.RetryChains, sum.RetriesRecovered,
	)
	if err != nil {
		return err
	}

	for _, tool := range sum.Tools {
		if _, err := db.conn.Exec(
			"INSERT INTO tool_rows (scan_id, session_id, tool, invocations, errors) VALUES (?, ?, ?, ?, ?)",
			scanID, sum.SessionID, tool.Name, tool.Invocations, tool.Errors,
		); err != nil {
			return err
		}
	}
	return nil
}

// InsertBlocks stores billing blocks under a scan.
func (db *DB) InsertBlocks(scanID int64, blocks []billing.Block) error {
	for _, b := range blocks {
		if _, err := db.conn.Exec(
			`INSERT INTO block_rows
			(scan_id, start_ts, end_ts, status, messages, input_tokens, output_tokens, cost_usd)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			scanID, b.Start.Format(time.RFC3339), b.End.Format(time.RFC3339),
			string(b.Status), b.MessageCount, b.InputTokens, b.OutputTokens,
			b.EstimatedCost,
		); err != nil {
			return err
		}
	}
	return nil
}

// SessionRows returns all stored session summaries for a scan.
func (db *DB) SessionRows(scanID int64) ([]SessionRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, scan_id, session_id, project, generation, first_ts, last_ts,
		 records, user_messages, assistant_messages, turns,
		 input_tokens, output_tokens, cache_read_tokens, cache_write_tokens,
		 cost_usd, retry_chains, retries_recovered
		 FROM session_rows WHERE scan_id = ? ORDER BY first_ts`,
		scanID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []SessionRow
	for rows.Next() {
		var r SessionRow
		var project, generation, firstTS, lastTS sql.NullString
		var usage schema.Usage
		if err := rows.Scan(
			&r.ID, &r.ScanID, &r.SessionID, &project, &generation, &firstTS, &lastTS,
			&r.Records, &r.UserMessages, &r.AssistantMessages, &r.Turns,
			&usage.InputTokens, &usage.OutputTokens,
			&usage.CacheReadInputTokens, &usage.CacheCreationInputTokens,
			&r.CostUSD, &r.RetryChains, &r.RetriesRecovered,
		); err != nil {
			return nil, err
		}
		r.ProjectHash = project.String
		r.Generation = generation.String
		r.FirstTimestamp = parseStoredTime(firstTS.String)
		r.LastTimestamp = parseStoredTime(lastTS.String)
		r.Tokens = usage
		out = append(out, r)
	}
	return out, rows.Err()
}

// BlockRows returns all stored billing blocks for a scan, oldest first.
func (db *DB) BlockRows(scanID int64) ([]BlockRow, error) {
	rows, err := db.conn.Query(
		`SELECT id, scan_id, start_ts, end_ts, status, messages,
		 input_tokens, output_tokens, cost_usd
		 FROM block_rows WHERE scan_id = ? ORDER BY start_ts`,
		scanID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []BlockRow
	for rows.Next() {
		var r BlockRow
		var start, end string
		if err := rows.Scan(
			&r.ID, &r.ScanID, &start, &end, &r.Status, &r.Messages,
			&r.InputTokens, &r.OutputTokens, &r.CostUSD,
		); err != nil {
			return nil, err
		}
		r.Start = parseStoredTime(start)
		r.End = parseStoredTime(end)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ToolTotals aggregates tool invocation counts across all scans.
func (db *DB) ToolTotals() (map[string]int, error) {
	rows, err := db.conn.Query(
		"SELECT tool, SUM(invocations) FROM tool_rows GROUP BY tool",
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	totals := make(map[string]int)
	for rows.Next() {
		var tool string
		var n int
		if err := rows.Scan(&tool, &n); err != nil {
			return nil, err
		}
		totals[tool] = n
	}
	return totals, rows.Err()
}

// CostTrend returns total cost per scan, oldest scan first.
func (db *DB) CostTrend() ([]float64, error) {
	rows, err := db.conn.Query(
		`SELECT COALESCE(SUM(cost_usd), 0) FROM session_rows
		 GROUP BY scan_id ORDER BY scan_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var trend []float64
	for rows.Next() {
		var cost float64
		if err := rows.Scan(&cost); err != nil {
			return nil, err
		}
		trend = append(trend, cost)
	}
	return trend, rows.Err()
}

func timeOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseStoredTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
