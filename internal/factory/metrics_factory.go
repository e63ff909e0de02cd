package factory

import (
	"fmt"

	"github.com/mikey/spam-sentry/internal/adapters/metrics"
	"github.com/mikey/spam-sentry/internal/config"
	"github.com/mikey/spam-sentry/internal/core"
	"go.uber.org/zap"
)

// MetricsFactory creates metrics stores
type MetricsFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewMetricsFactory creates a new metrics store factory
func NewMetricsFactory(cfg *config.Config, logger *zap.Logger) *MetricsFactory {
	return &MetricsFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateMetricsStore creates a new metrics store based on the configuration
func (f *MetricsFactory) CreateMetricsStore() (core.MetricsStore, error) {
	metricsCfg := f.cfg.GetMetrics()

	switch metricsCfg.Type {
	case "file":
		return metrics.NewFileStore(metricsCfg.FilePath, f.logger), nil
	case "sqlite":
		return metrics.NewSQLiteStore(metricsCfg.SQLitePath, f.logger)
	case "mysql":
		return metrics.NewMySQLStore(metricsCfg.MySQLDSN, f.logger)
	default:
		return nil, fmt.Errorf("unsupported metrics store type: %s", metricsCfg.Type)
	}
}
