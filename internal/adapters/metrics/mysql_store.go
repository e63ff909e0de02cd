package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/spam-sentry/internal/core"
	"go.uber.org/zap"
)

// MySQLStore is a MySQL implementation of the MetricsStore interface. The
// snapshot lives in a single fixed row.
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore creates a new MySQL metrics store
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metrics (
			id TINYINT PRIMARY KEY,
			total_messages BIGINT NOT NULL,
			filtered_locally BIGINT NOT NULL,
			sent_to_api BIGINT NOT NULL,
			spam_detected BIGINT NOT NULL,
			start_date TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{
		db:     db,
		logger: logger,
	}, nil
}

// Load reads the persisted snapshot. An empty table yields a zero-initialized
// snapshot with StartDate set to now.
func (s *MySQLStore) Load(ctx context.Context) (*core.MetricsSnapshot, error) {
	var snapshot core.MetricsSnapshot
	var startDate time.Time

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

	snapshot.StartDate = startDate
	return &snapshot, nil
}

// Save rewrites the snapshot row.
func (s *MySQLStore) Save(ctx context.Context, snapshot *core.MetricsSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		REPLACE INTO metrics (id, total_messages, filtered_locally, sent_to_api, spam_detected, start_date)
		VALUES (1, ?, ?, ?, ?, ?)
	`, snapshot.TotalMessages, snapshot.FilteredLocally, snapshot.SentToAPI, snapshot.SpamDetected, snapshot.StartDate)

	if err != nil {
		return fmt.Errorf("failed to write metrics row: %w", err)
	}

	return nil
}

// Stop closes the database connection.
func (s *MySQLStore) Stop() {
	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
