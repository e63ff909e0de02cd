package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/spam-sentry/internal/core"
	"go.uber.org/zap"
)

// SQLiteStore is a SQLite implementation of the MetricsStore interface. The
// snapshot lives in a single fixed row.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates a new SQLite metrics store
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metrics (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			total_messages INTEGER NOT NULL,
			filtered_locally INTEGER NOT NULL,
			sent_to_api INTEGER NOT NULL,
			spam_detected INTEGER NOT NULL,
			start_date TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger,
	}, nil
}

// Load reads the persisted snapshot. An empty table yields a zero-initialized
// snapshot with StartDate set to now.
func (s *SQLiteStore) Load(ctx context.Context) (*core.MetricsSnapshot, error) {
	var snapshot core.MetricsSnapshot
	var startDate string

	err := s.db.QueryRowContext(ctx, `
		SELECT total_messages, filtered_locally, sent_to_api, spam_detected, start_date
		FROM metrics
		WHERE id = 1
	`).Scan(&snapshot.TotalMessages, &snapshot.FilteredLocally, &snapshot.SentToAPI, &snapshot.SpamDetected, &startDate)

	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Info("No metrics row found, starting fresh")
			return &core.MetricsSnapshot{StartDate: time.Now()}, nil
		}
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}

	snapshot.StartDate, err = time.Parse(time.RFC3339, startDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start_date: %w", err)
	}

	return &snapshot, nil
}

// Save rewrites the snapshot row.
func (s *SQLiteStore) Save(ctx context.Context, snapshot *core.MetricsSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO metrics (id, total_messages, filtered_locally, sent_to_api, spam_detected, start_date)
		VALUES (1, ?, ?, ?, ?, ?)
	`, snapshot.TotalMessages, snapshot.FilteredLocally, snapshot.SentToAPI, snapshot.SpamDetected, snapshot.StartDate.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to write metrics row: %w", err)
	}

	return nil
}

// Stop closes the database connection.
func (s *SQLiteStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
