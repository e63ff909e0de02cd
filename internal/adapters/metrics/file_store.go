package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mikey/spam-sentry/internal/core"
	"go.uber.org/zap"
)

// FileStore persists the metrics snapshot as a single JSON record on disk,
// rewritten in full after every mutation.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore creates a new file-backed metrics store
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

// Load reads the persisted snapshot. A missing file yields a zero-initialized
// snapshot with StartDate set to now.
func (s *FileStore) Load(ctx context.Context) (*core.MetricsSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("No metrics file found, starting fresh", zap.String("path", s.path))
			return &core.MetricsSnapshot{StartDate: time.Now()}, nil
		}
		return nil, fmt.Errorf("failed to read metrics file: %w", err)
	}

	var snapshot core.MetricsSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse metrics file: %w", err)
	}

	return &snapshot, nil
}

// Save rewrites the snapshot. The write goes to a temp file first and is
// renamed into place so a crash mid-write never leaves a torn record.
func (s *FileStore) Save(ctx context.Context, snapshot *core.MetricsSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace metrics file: %w", err)
	}

	return nil
}

// Path returns the absolute location of the backing file, for logging.
func (s *FileStore) Path() string {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		return s.path
	}
	return abs
}
