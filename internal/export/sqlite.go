package export

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/quarryhill/cclens/internal/billing"
	"github.com/quarryhill/cclens/internal/schema"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	line        INTEGER NOT NULL,
	uuid        TEXT,
	parent_uuid TEXT,
	kind        TEXT NOT NULL,
	timestamp   TEXT,
	raw         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_uuid ON records(uuid);

CREATE TABLE IF NOT EXISTS messages (
	uuid          TEXT,
	message_id    TEXT,
	role          TEXT,
	model         TEXT,
	text          TEXT,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS blocks (
	start_time    TEXT NOT NULL,
	end_time      TEXT NOT NULL,
	status        TEXT NOT NULL,
	messages      INTEGER NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	cost_usd      REAL NOT NULL
);
`

// WriteSQLite exports a session to a standalone SQLite database: the raw
// records (lossless), a flattened message view, and billing blocks. An
// existing database at path is appended to.
func WriteSQLite(path string, records []*schema.Record, blocks []billing.Block) error {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return err
	}
	if _, err := conn.Exec(sqliteSchema); err != nil {
		return err
	}

	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, rec := range records {
		raw, err := rec.MarshalJSON()
		if err != nil {
			return err
		}
		var ts string
		if t, ok := rec.Timestamp(); ok {
			ts = t.UTC().Format(time.RFC3339Nano)
		}
		if _, err := tx.Exec(
			"INSERT INTO records (line, uuid, parent_uuid, kind, timestamp, raw) VALUES (?, ?, ?, ?, ?, ?)",
			i+1, rec.UUID, rec.ParentUUID, string(rec.Kind), ts, string(raw),
		); err != nil {
			return err
		}

		if rec.Message == nil {
			continue
		}
		var in, out int64
		if u := rec.Usage(); u != nil {
			in, out = u.InputTokens, u.OutputTokens
		}
		if _, err := tx.Exec(
			"INSERT INTO messages (uuid, message_id, role, model, text, input_tokens, output_tokens) VALUES (?, ?, ?, ?, ?, ?, ?)",
			rec.UUID, rec.Message.ID, rec.Message.Role, rec.Message.Model,
			rec.Content().Text(), in, out,
		); err != nil {
			return err
		}
	}

	for i := range blocks {
		b := &blocks[i]
		if _, err := tx.Exec(
			"INSERT INTO blocks (start_time, end_time, status, messages, input_tokens, output_tokens, cost_usd) VALUES (?, ?, ?, ?, ?, ?, ?)",
			b.Start.UTC().Format(time.RFC3339), b.End.UTC().Format(time.RFC3339),
			string(b.Status), b.MessageCount, b.InputTokens, b.OutputTokens, b.EstimatedCost,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}
