package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// applicationID marks a SQLite file as a bfc run log ("bfc" plus a zero
// byte), so pointing --db at some other database fails instead of adding
// tables to it.
const applicationID = 0x62666300

// schemaVersion is kept in user_version. A file written with a newer
// schema is refused rather than misread.
const schemaVersion = 1

// ErrForeignDatabase is returned (wrapped) by Open when the file is a
// SQLite database that bfc did not create.
var ErrForeignDatabase = errors.New("not a bfc database")

// connPragmas configure every connection: WAL so readers are not blocked by
// the writer, NORMAL sync, a 5s busy timeout and enforced foreign keys.
var connPragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the program and run log.
type Store struct {
	db *sql.DB
}

// Open opens the run log at path, creating it when the file is new or
// empty. ":memory:" opens a private in-memory log.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection: SQLite has a single writer, and an in-memory
	// database only exists on the connection that created it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initialize(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// initialize checks the file header before changing anything, then
// configures the connection and applies the schema.
func initialize(db *sql.DB) error {
	var appID, version, tables int
	if err := db.QueryRow("PRAGMA application_id").Scan(&appID); err != nil {
		return fmt.Errorf("read application_id: %w", err)
	}
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&tables); err != nil {
		return fmt.Errorf("count tables: %w", err)
	}

	switch {
	case appID == 0 && tables == 0:
		// New file.
	case appID != applicationID:
		return fmt.Errorf("%w: application_id %#x", ErrForeignDatabase, appID)
	case version > schemaVersion:
		return fmt.Errorf("schema version %d is newer than this bfc supports (%d)", version, schemaVersion)
	}

	for _, pragma := range connPragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	// Schema and stamp commit together, so a file is either untouched or a
	// complete bfc log.
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	stamp := fmt.Sprintf("PRAGMA application_id = %d; PRAGMA user_version = %d", applicationID, schemaVersion)
	if _, err := tx.Exec(stamp); err != nil {
		return fmt.Errorf("stamp schema: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
