// file: internal/database/migrations.go
// version: 2.0.0
// guid: 8c3f1a97-d6e4-4b20-b5a8-2e9d7c0f41b6

package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

// MigrationFunc applies one schema change inside a transaction
type MigrationFunc func(tx *sql.Tx) error

// Migration represents a single schema migration
type Migration struct {
	Version     int
	Description string
	Up          MigrationFunc
}

// MigrationRecord tracks applied migrations
type MigrationRecord struct {
	Version     int       `json:"version"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
}

// migrations is the ordered list of all migrations
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create books, word_chunks, settings and book_progress tables",
		Up:          migration001Up,
	},
	{
		Version:     2,
		Description: "Add lookup indexes for file name, chunk owner and last read date",
		Up:          migration002Up,
	},
}

// SchemaVersion returns the highest migration version known to this build.
func SchemaVersion() int {
	return migrations[len(migrations)-1].Version
}

// RunMigrations applies all pending migrations
func RunMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	currentVersion, err := getCurrentVersion(db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	pending := []Migration{}
	for _, m := range migrations {
		if m.Version > currentVersion {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		log.Printf("[DEBUG] Database is up to date (version %d)", currentVersion)
		return nil
	}

	log.Printf("[INFO] Applying %d migrations...", len(pending))
	for _, m := range pending {
		log.Printf("[INFO] Applying migration %d: %s", m.Version, m.Description)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: failed to begin: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", m.Version, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)`,
			m.Version, m.Description, formatTime(time.Now())); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: failed to commit: %w", m.Version, err)
		}
	}

	log.Printf("[INFO] All migrations completed. Current version: %d", pending[len(pending)-1].Version)
	return nil
}

func getCurrentVersion(db *sql.DB) (int, error) {
	var version sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations`).Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// GetMigrationHistory returns applied migrations in version order
func GetMigrationHistory(db *sql.DB) ([]MigrationRecord, error) {
	rows, err := db.Query(`SELECT version, description, applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var records []MigrationRecord
	for rows.Next() {
		var rec MigrationRecord
		var appliedAt string
		if err := rows.Scan(&rec.Version, &rec.Description, &appliedAt); err != nil {
			return nil, err
		}
		rec.AppliedAt = parseTime(appliedAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// migration001Up creates the base tables
func migration001Up(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		cover_url TEXT,
		total_words INTEGER NOT NULL DEFAULT 0,
		current_word_index INTEGER NOT NULL DEFAULT 0,
		last_read_date TEXT NOT NULL,
		chapters TEXT NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS word_chunks (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		words TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		id TEXT PRIMARY KEY,
		wpm INTEGER NOT NULL,
		theme TEXT NOT NULL,
		input_type TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS book_progress (
		id TEXT PRIMARY KEY,
		current_word_index INTEGER NOT NULL DEFAULT 0,
		current_chapter INTEGER NOT NULL DEFAULT 0,
		last_read_date TEXT NOT NULL
	);
	`
	_, err := tx.Exec(schema)
	return err
}

// migration002Up adds the secondary indexes used by dedupe, chunk lookups and listing
func migration002Up(tx *sql.Tx) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_books_file_name ON books(file_name)",
		"CREATE INDEX IF NOT EXISTS idx_books_last_read ON books(last_read_date)",
		"CREATE INDEX IF NOT EXISTS idx_word_chunks_book ON word_chunks(book_id, chunk_index)",
	}
	for _, stmt := range indexes {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}
	return nil
}
