package runner

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vigilo-project/vigilo/internal"
	"github.com/vigilo-project/vigilo/internal/analysis"
	"github.com/vigilo-project/vigilo/internal/db"
	"github.com/vigilo-project/vigilo/web/services"
)

type fleetAnalyzer interface {
	AnalyzeFleet(ctx context.Context) ([]*services.AssetAnalysis, error)
}

type staleMarker interface {
	MarkStale(activeWithin time.Duration) (int64, error)
}

// Runner drives the analysis sweep over the fleet, either once or on a
// fixed interval
type Runner struct {
	config    *Config
	analyzer  fleetAnalyzer
	assets    staleMarker
	ctx       context.Context
	ctxCancel context.CancelFunc
}

type Config struct {
	DBConfig         *db.Config
	AnalysisConfig   analysis.Config
	AlertDedupWindow time.Duration
	SweepInterval    time.Duration
	Once             bool
}

func NewRunner(config *Config) (*Runner, error) {
	gormDB, err := db.InitDB(config.DBConfig)
	if err != nil {
		return nil, errors.Wrap(err, "could not connect to the database")
	}

	telemetryService := services.NewTelemetryService(gormDB)
	assetsService := services.NewAssetsService(gormDB)
	predictionsService := services.NewPredictionsService(gormDB)
	alertsService := services.NewAlertsService(gormDB, config.AlertDedupWindow)
	analysisService := services.NewAnalysisService(
		config.AnalysisConfig, telemetryService, assetsService, predictionsService, alertsService)

	return NewRunnerWithDeps(config, analysisService, assetsService), nil
}

func NewRunnerWithDeps(config *Config, analyzer fleetAnalyzer, assets staleMarker) *Runner {
	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Runner{
		config:    config,
		analyzer:  analyzer,
		assets:    assets,
		ctx:       ctx,
		ctxCancel: ctxCancel,
	}
}

// Start sweeps the fleet until Stop is called. With Once set, a single
// sweep runs and Start returns.
func (r *Runner) Start() error {
	if r.config.Once {
		r.sweep()
		return nil
	}

	internal.Repeat("runner.sweep", r.sweep, r.config.SweepInterval, r.ctx)

	return nil
}

func (r *Runner) Stop() {
	r.ctxCancel()
}

func (r *Runner) sweep() {
	staled, err := r.assets.MarkStale(r.config.AnalysisConfig.ActivityWindow)
	if err != nil {
		log.Errorf("Could not mark stale assets: %s", err)
	} else if staled > 0 {
		log.Infof("Marked %d assets as stale", staled)
	}

	results, err := r.analyzer.AnalyzeFleet(r.ctx)
	if err != nil {
		log.Errorf("Analysis sweep failed: %s", err)
		return
	}

	log.Infof("Analysis sweep finished, %d assets analyzed", len(results))
}
