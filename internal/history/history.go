// Package history keeps a record of decoding runs in a local SQLite
// database, so past decodes and their telemetry results can be reviewed.
package history

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB is a handle to the run history database.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the history database at path and applies any
// pending schema migrations.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func (db *DB) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating sqlite driver: %w", err)
	}

	// Note: the migrate instance is not closed because that would close
	// the underlying DB connection.
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// Run is one recorded invocation of an operation.
type Run struct {
	ID         string
	Operation  string // "decode" or "resample"
	InputFile  string
	OutputFile string
	InputRate  int
	OutputRate int
	ImageRows  int
	Synced     bool
	ChannelA   string
	ChannelB   string
	Duration   time.Duration
	CreatedAt  time.Time
}

// RecordRun inserts a run. A missing ID or timestamp is filled in.
func (db *DB) RecordRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO runs (
			run_id, operation, input_file, output_file,
			input_rate, output_rate, image_rows, synced,
			channel_a, channel_b, duration_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Operation, run.InputFile, run.OutputFile,
		run.InputRate, run.OutputRate, run.ImageRows, run.Synced,
		run.ChannelA, run.ChannelB, run.Duration.Milliseconds(),
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT run_id, operation, input_file, output_file,
		       input_rate, output_rate, image_rows, synced,
		       channel_a, channel_b, duration_ms, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMs int64
		var createdAt string
		if err := rows.Scan(
			&run.ID, &run.Operation, &run.InputFile, &run.OutputFile,
			&run.InputRate, &run.OutputRate, &run.ImageRows, &run.Synced,
			&run.ChannelA, &run.ChannelB, &durationMs, &createdAt,
		); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			run.CreatedAt = t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
