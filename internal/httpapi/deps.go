package httpapi

import (
	"database/sql"
	"log/slog"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"resumerank-engine/internal/config"
	"resumerank-engine/internal/events"
	"resumerank-engine/internal/metrics"
	"resumerank-engine/internal/pipeline"
)

type Deps struct {
	DB *sql.DB

	Hub      *events.Hub
	Pipeline *pipeline.Service
	Logger   *slog.Logger

	Metrics  *metrics.Metrics
	Registry prometheus.Gatherer // nil disables /metrics

	// Atomic store
	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
	// OnConfig is called after a saved config has been reloaded.
	OnConfig func(config.Config)

	// Uploads
	UploadLimiter  *ClientLimiter // nil disables rate limiting
	MaxUploadBytes int64

	Version string
}
