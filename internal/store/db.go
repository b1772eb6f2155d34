package store

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection to the cclens scan database.
type DB struct {
	conn *sql.DB
}

// scanPragmas tunes the connection for the track workload: each scan
// inserts session, block, and tool rows in one burst while a concurrent
// `blocks --save` or trend read may hold the file. synchronous=NORMAL is
// safe under WAL; the busy timeout rides out the other writer.
var scanPragmas = []string{
	"PRAGMA busy_timeout=5000",
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA foreign_keys=ON",
}

// Open opens or creates the scan database at the given path, creating the
// parent directory if needed, and migrates it to the current schema.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	return open(dbPath, scanPragmas)
}

// OpenInMemory opens an in-memory database, useful for testing. WAL and
// busy handling are meaningless in memory, so only foreign keys apply.
func OpenInMemory() (*DB, error) {
	return open(":memory:", []string{"PRAGMA foreign_keys=ON"})
}

func open(dsn string, pragmas []string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One connection: scan inserts and trend reads interleave on the same
	// handle instead of tripping SQLITE_BUSY across pool connections.
	conn.SetMaxOpenConns(1)

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB for advanced queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}
