package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// CurrentVersion is the current schema version.
const CurrentVersion = 3

// ErrSchemaVersionUnknown is returned when a database's schema_version
// is newer than CurrentVersion: this binary is too old to open it safely.
var ErrSchemaVersionUnknown = errors.New("database schema version is newer than this build understands")

// ErrMigrationsDisabled is returned by Open when MigrationsDisabled or
// ReadOnly was requested and the database is not already sitting at
// CurrentVersion (including a brand new, uninitialized file).
var ErrMigrationsDisabled = errors.New("database is not at the current schema version and migrations are disabled")

// migration is one step of the upgrade path: apply runs inside the same
// transaction as every other step between the database's current version
// and CurrentVersion, and version names the schema version it produces.
type migration struct {
	version int
	apply   func(tx *sql.Tx) error
}

// migrations is the full upgrade path, in order. Open (via Migrate) runs
// every entry whose version is greater than the database's current
// version and at most CurrentVersion, inside one transaction, then bumps
// schema_version once at the end.
var migrations = []migration{
	{
		version: 2,
		apply: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				CREATE TABLE IF NOT EXISTS key_value (
					key TEXT PRIMARY KEY,
					value TEXT,
					last_modified INTEGER NOT NULL
				)
			`)
			return err
		},
	},
	{
		version: 3,
		apply: func(tx *sql.Tx) error {
			// No structural change; reserved so export/import format
			// changes can be version-gated later without a schema bump
			// of their own.
			return nil
		},
	},
}

// InitDB initializes a new database with the current schema.
func InitDB(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := createVersionTable(tx); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}
	if err := createTables(tx); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	if err := createIndexes(tx); err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if err := setSchemaVersion(tx, CurrentVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the current schema version from the database.
// A database with no version row at all (schema_version table missing or
// empty) reads as version 0, the uninitialized state.
func GetSchemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query schema version: %w", err)
	}
	return version, nil
}

func createVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL,
			applied_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createTables creates all database tables: buckets (v1), events (v1),
// key_value (v2, see migrations). v3 adds nothing structural; it exists
// so export/import format changes can be version-gated later without a
// schema change of their own.
func createTables(tx *sql.Tx) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS buckets (
			bid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT UNIQUE NOT NULL,
			type TEXT NOT NULL,
			client TEXT NOT NULL,
			hostname TEXT NOT NULL,
			created TEXT NOT NULL,
			data TEXT NOT NULL DEFAULT '{}'
		)`,

		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bucketrow INTEGER NOT NULL,
			starttime INTEGER NOT NULL,
			endtime INTEGER NOT NULL,
			data TEXT NOT NULL,
			FOREIGN KEY (bucketrow) REFERENCES buckets(bid) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS key_value (
			key TEXT PRIMARY KEY,
			value TEXT,
			last_modified INTEGER NOT NULL
		)`,
	}
	for _, ddl := range tables {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

func createIndexes(tx *sql.Tx) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS bucket_id_index ON buckets(id)",
		"CREATE INDEX IF NOT EXISTS events_bucketrow_index ON events(bucketrow)",
		"CREATE INDEX IF NOT EXISTS events_starttime_index ON events(starttime)",
		"CREATE INDEX IF NOT EXISTS events_endtime_index ON events(endtime)",
	}
	for _, ddl := range indexes {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// OpenDB opens a SQLite database connection with the pragmas the store
// relies on: foreign keys enforced, WAL journaling for concurrent readers
// while the worker holds the write lock.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA wal_autocheckpoint = 1000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set wal autocheckpoint: %w", err)
	}
	return db, nil
}

// schemaState reports a database's current version and whether it has
// been initialized at all (schema_version table present).
func schemaState(db *sql.DB) (version int, initialized bool, err error) {
	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("check schema_version table: %w", err)
	}
	version, err = GetSchemaVersion(db)
	if err != nil {
		return 0, false, err
	}
	return version, true, nil
}

// Migrate brings the database up to CurrentVersion, initializing it from
// scratch if no schema_version table exists yet. A database whose
// recorded version is newer than CurrentVersion is refused outright
// rather than silently treated as current: an older build opening a
// newer database's file is exactly the case a schema version exists to
// catch.
func Migrate(db *sql.DB) error {
	version, initialized, err := schemaState(db)
	if err != nil {
		return err
	}
	if !initialized || version == 0 {
		return InitDB(db)
	}
	switch {
	case version == CurrentVersion:
		return nil
	case version < CurrentVersion:
		if err := runMigrations(db, version, CurrentVersion); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("schema version %d (current %d): %w", version, CurrentVersion, ErrSchemaVersionUnknown)
	}
}

// requireCurrentVersion checks the database is already at CurrentVersion
// without touching it, for the MigrationsDisabled and ReadOnly open
// modes: both want "tell me if this isn't ready", never "make it ready".
func requireCurrentVersion(db *sql.DB) error {
	version, initialized, err := schemaState(db)
	if err != nil {
		return err
	}
	if !initialized || version != CurrentVersion {
		return fmt.Errorf("schema version %d (current %d): %w", version, CurrentVersion, ErrMigrationsDisabled)
	}
	return nil
}

// runMigrations applies every migration step after startVersion and up
// to endVersion inside a single transaction, then records endVersion as
// the new schema_version.
func runMigrations(db *sql.DB, startVersion, endVersion int) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, m := range migrations {
		if m.version <= startVersion || m.version > endVersion {
			continue
		}
		if err := m.apply(tx); err != nil {
			return fmt.Errorf("apply migration to version %d: %w", m.version, err)
		}
	}

	if _, err := tx.Exec("UPDATE schema_version SET version = ?", endVersion); err != nil {
		return fmt.Errorf("update schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
