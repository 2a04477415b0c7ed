// Package store implements the shared task store on embedded SQLite.
//
// The store is the single durable home for projects, tasks, daily plans,
// and the activity log. Several independent processes (terminal client,
// chat-bot, browser board sessions) open the same database file and act as
// concurrent readers and writers; SQLite in WAL mode serializes individual
// mutations, and concurrent writes to the same record resolve by
// last-write-wins on the record's update timestamp.
//
// Every task mutation runs as one transaction that applies the data change,
// recomputes the derived priority rank, and appends the audit entry. Either
// all three land or none do. After commit the store publishes a per-table
// change signal on the configured bus so live subscribers can re-fetch.
//
// The store never reads environment or global configuration; callers hand
// it a database path and an optional bus.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/schwesti/todo/internal/bus"
	"github.com/schwesti/todo/internal/models"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// dateFormat is the storage form of calendar dates (due, done_date,
// plan_date).
const dateFormat = "2006-01-02"

// timestampFormat is the storage form of instants: RFC 3339 with a
// fixed-width nanosecond fraction, so lexicographic order is
// chronological order and two writes in the same wall-clock second still
// produce distinct values. The table change stamps aggregate
// MAX(updated_at); second-granularity timestamps would let a second
// same-second write slip past an already-taken stamp unnoticed.
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Config holds optional store dependencies.
type Config struct {
	// Bus receives per-table change signals after each committed write.
	// Nil disables fan-out.
	Bus *bus.Bus

	// Now is the clock used for timestamps and priority computation.
	// Defaults to time.Now. Tests substitute a fixed clock.
	Now func() time.Time

	// Logger for store warnings. Defaults to a stderr logger.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Now:    time.Now,
		Logger: log.New(os.Stderr, "[store] ", log.LstdFlags),
	}
}

// Store wraps the SQLite connection with the write-path pipeline.
type Store struct {
	conn *sql.DB
	path string
	cfg  *Config
}

// Open opens (or creates) the database at path with default configuration.
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	return OpenWithConfig(path, nil)
}

// OpenWithConfig opens the database with custom configuration.
//
// The database runs in WAL mode so concurrent readers are never blocked by
// a writer. Foreign keys are enabled to enforce the cascade rules
// (project -> tasks -> activity). The schema is created if missing and the
// reserved inbox project is ensured to exist.
func OpenWithConfig(path string, cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stderr, "[store] ", log.LstdFlags)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s", path)
	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{
		conn: conn,
		path: path,
		cfg:  cfg,
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := s.conn.Exec(pragma); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	if err := s.InitSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}

	if _, err := s.EnsureInbox(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RawDB returns the underlying sql.DB connection.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		s.cfg.Logger.Printf("Warning: failed to checkpoint WAL: %v", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the tables and indexes if they don't exist.
// Idempotent, safe to call multiple times.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		color TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		description TEXT NOT NULL,
		done INTEGER NOT NULL DEFAULT 0,
		due TEXT,
		urgent INTEGER NOT NULL DEFAULT 0,
		effort TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL DEFAULT 0,
		priority_score INTEGER NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		recurring_rule TEXT NOT NULL DEFAULT '',
		effort_minutes INTEGER,
		actual_minutes INTEGER,
		source TEXT NOT NULL DEFAULT 'cli',
		done_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_plans (
		id TEXT PRIMARY KEY,
		plan_date TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		action TEXT NOT NULL,
		context TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_done ON tasks(done);
	CREATE INDEX IF NOT EXISTS idx_tasks_score ON tasks(priority_score);
	CREATE INDEX IF NOT EXISTS idx_tasks_done_date ON tasks(done_date);
	CREATE INDEX IF NOT EXISTS idx_activity_task ON activity(task_id);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// now returns the current instant in UTC.
func (s *Store) now() time.Time {
	return s.cfg.Now().UTC()
}

// today returns the current calendar date.
func (s *Store) today() time.Time {
	return models.DateOnly(s.cfg.Now())
}

// publish signals table changes on the configured bus, if any.
// Called after commit, never inside a transaction.
func (s *Store) publish(tables ...string) {
	if s.cfg.Bus == nil {
		return
	}
	for _, t := range tables {
		s.cfg.Bus.Publish(t)
	}
}

// DataVersion returns SQLite's data_version counter, which changes whenever
// another connection commits a write to the database. The change notifier
// polls this to detect external writers cheaply.
func (s *Store) DataVersion(ctx context.Context) (int64, error) {
	var v int64
	if err := s.conn.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read data_version: %w", err)
	}
	return v, nil
}

// ChangeStamp returns a cheap fingerprint of a table's current contents:
// row count plus the newest update timestamp. Two differing stamps mean the
// table changed; the notifier compares stamps to decide which table signal
// to publish.
func (s *Store) ChangeStamp(ctx context.Context, table string) (string, error) {
	var query string
	switch table {
	case bus.TableProjects:
		query = `SELECT COUNT(*) || ':' || COALESCE(MAX(updated_at), '') FROM projects`
	case bus.TableTasks:
		query = `SELECT COUNT(*) || ':' || COALESCE(MAX(updated_at), '') FROM tasks`
	default:
		return "", fmt.Errorf("unknown table %q", table)
	}

	var stamp string
	if err := s.conn.QueryRowContext(ctx, query).Scan(&stamp); err != nil {
		return "", fmt.Errorf("failed to stamp table %s: %w", table, err)
	}
	return stamp, nil
}

// dateToNull converts a calendar date pointer to a nullable string for SQL.
func dateToNull(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateFormat), Valid: true}
}

// nullToDate converts a nullable SQL string back to a calendar date.
func nullToDate(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(dateFormat, ns.String)
	if err != nil {
		return nil
	}
	return &t
}

// intToNull converts an int pointer to a nullable int64 for SQL.
func intToNull(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

// nullToInt converts a nullable SQL int64 back to an int pointer.
func nullToInt(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// parseTimestamp parses a stored timestamp, with or without a fractional
// second, tolerating an empty value.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
