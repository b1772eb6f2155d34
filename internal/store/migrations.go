package store

import "fmt"

// currentSchemaVersion is the latest schema version.
const currentSchemaVersion = 1

// Migrate runs forward migrations to bring the database schema up to date.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	version := 0
	row := db.conn.QueryRow("SELECT version FROM schema_version LIMIT 1")
	if err := row.Scan(&version); err != nil {
		// No rows means version 0 (fresh database).
		version = 0
	}

	if version < 1 {
		if err := db.migrateV1(); err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
	}

	return nil
}

// migrateV1 creates all initial tables and indexes.
func (db *DB) migrateV1() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS scans (
			id       INTEGER PRIMARY KEY AUTOINCREMENT,
			taken_at TEXT NOT NULL,
			command  TEXT NOT NULL,
			version  TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS session_rows (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id            INTEGER NOT NULL REFERENCES scans(id),
			session_id         TEXT NOT NULL,
			project            TEXT,
			generation         TEXT,
			first_ts           TEXT,
			last_ts            TEXT,
			records            INTEGER NOT NULL,
			user_messages      INTEGER NOT NULL,
			assistant_messages INTEGER NOT NULL,
			turns              INTEGER NOT NULL,
			input_tokens       INTEGER NOT NULL,
			output_tokens      INTEGER NOT NULL,
			cache_read_tokens  INTEGER NOT NULL,
			cache_write_tokens INTEGER NOT NULL,
			cost_usd           REAL NOT NULL,
			retry_chains       INTEGER NOT NULL,
			retries_recovered  INTEGER NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS block_rows (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id       INTEGER NOT NULL REFERENCES scans(id),
			start_ts      TEXT NOT NULL,
			end_ts        TEXT NOT NULL,
			status        TEXT NOT NULL,
			messages      INTEGER NOT NULL,
			input_tokens  INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cost_usd      REAL NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS tool_rows (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			scan_id     INTEGER NOT NULL REFERENCES scans(id),
			session_id  TEXT NOT NULL,
			tool        TEXT NOT NULL,
			invocations INTEGER NOT NULL,
			errors      INTEGER NOT NULL
		)`,

		// Indexes.
		`CREATE INDEX IF NOT EXISTS idx_session_rows_scan ON session_rows(scan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_session_rows_session ON session_rows(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_block_rows_scan ON block_rows(scan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tool_rows_scan ON tool_rows(scan_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tool_rows_tool ON tool_rows(tool)`,
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt[:40], err)
		}
	}

	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
		return err
	}

	return tx.Commit()
}
