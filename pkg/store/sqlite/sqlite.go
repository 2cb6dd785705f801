package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// Config controls SQLite initialization.
type Config struct {
	Path   string
	Logger *slog.Logger
}

// Database wraps the sql.DB handle.
type Database struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens the database and ensures schema.
func New(ctx context.Context, cfg Config) (*Database, error) {
	if cfg.Path == "" {
		return nil, errors.New("database path is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", cfg.Path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	wrapper := &Database{db: db, logger: cfg.Logger}
	if err := wrapper.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	cfg.Logger.Debug("sqlite ready", "path", cfg.Path)
	return wrapper, nil
}

// Timestamps are stored as fixed-width UTC text so that string comparison in
// SQL agrees with time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func (d *Database) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mood_entries (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            mood TEXT NOT NULL,
            intensity INTEGER NOT NULL CHECK (intensity BETWEEN 1 AND 5),
            activities JSON,
            notes TEXT DEFAULT '',
            tags JSON,
            is_auto_detected INTEGER DEFAULT 0,
            timestamp TEXT NOT NULL,
            created_at TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_entries_user_ts ON mood_entries(user_id, timestamp);`,
		`CREATE TABLE IF NOT EXISTS insights (
            id TEXT PRIMARY KEY,
            user_id TEXT NOT NULL,
            period_start TEXT NOT NULL,
            period_end TEXT NOT NULL,
            dominant_mood TEXT NOT NULL,
            mood_distribution JSON,
            mood_timeseries JSON,
            top_activities JSON,
            activity_correlations JSON,
            intensity_stats JSON,
            generated_at TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_insights_user_end ON insights(user_id, period_end);`,
		`CREATE TABLE IF NOT EXISTS suggestions (
            id TEXT PRIMARY KEY,
            insight_id TEXT NOT NULL REFERENCES insights(id) ON DELETE CASCADE,
            position INTEGER NOT NULL,
            content TEXT NOT NULL,
            suggestion_type TEXT NOT NULL,
            confidence_score REAL,
            generated_at TEXT NOT NULL
        );`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_insight ON suggestions(insight_id);`,
	}

	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the database.
func (d *Database) Close() error {
	return d.db.Close()
}
