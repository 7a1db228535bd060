// Package db records completed runs in a SQLite history file.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const DefaultDBName = "wordreduce.db"

// SchemaVersion is stored in PRAGMA user_version once the schema exists.
const SchemaVersion = 1

// BusyTimeoutMillis is how long a connection waits on a locked history
// file, e.g. while another run is recording.
const BusyTimeoutMillis = 5000

var ErrSchemaTooNew = errors.New("history database was written by a newer wordreduce")

type DB struct {
	*sql.DB
	path string
}

// dsn applies the connection PRAGMAs through the driver, so every
// connection the pool opens carries them.
func dsn(dbPath string) string {
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", dbPath, BusyTimeoutMillis)
}

func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite takes one writer at a time.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return sqlDB, nil
}

// Open opens or creates the history database next to the binary.
func Open() (*DB, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	return OpenPath(filepath.Join(filepath.Dir(execPath), DefaultDBName))
}

// OpenPath opens or creates the history database at dbPath and brings its
// schema up to SchemaVersion.
func OpenPath(dbPath string) (*DB, error) {
	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}

	db := &DB{
		DB:   sqlDB,
		path: dbPath,
	}
	if err := db.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return db, nil
}

// migrate creates the schema on a new file. Files from before versioning
// carry user_version 0 and get the idempotent schema applied again.
func (db *DB) migrate() error {
	v, err := db.Version()
	if err != nil {
		return err
	}
	switch {
	case v == SchemaVersion:
		return nil
	case v > SchemaVersion:
		return fmt.Errorf("%w: schema version %d, this build knows %d", ErrSchemaTooNew, v, SchemaVersion)
	}
	if err := db.InitSchema(); err != nil {
		return err
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// Version returns the schema version stored in the file.
func (db *DB) Version() (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func (db *DB) Path() string {
	return db.path
}

// InitSchema creates every table and index that does not exist yet.
func (db *DB) InitSchema() error {
	_, err := db.Exec(schema)
	return err
}
