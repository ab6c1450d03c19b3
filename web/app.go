package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/vigilo-project/vigilo/internal/analysis"
	"github.com/vigilo-project/vigilo/internal/db"
	"github.com/vigilo-project/vigilo/web/datapipeline"
	"github.com/vigilo-project/vigilo/web/models"
	"github.com/vigilo-project/vigilo/web/services"
)

type App struct {
	host string
	port int
	Dependencies
}

type Dependencies struct {
	db                 *gorm.DB
	engine             *gin.Engine
	assetsService      *services.AssetsService
	predictionsService *services.PredictionsService
	alertsService      *services.AlertsService
	analysisService    *services.AnalysisService
	tagsService        *services.TagsService
}

func DefaultDependencies(dbConfig *db.Config, analysisConfig analysis.Config, alertDedupWindow time.Duration) (Dependencies, error) {
	gormDB, err := db.InitDB(dbConfig)
	if err != nil {
		return Dependencies{}, errors.Wrap(err, "could not connect to the database")
	}

	return NewDependencies(gormDB, analysisConfig, alertDedupWindow), nil
}

func NewDependencies(gormDB *gorm.DB, analysisConfig analysis.Config, alertDedupWindow time.Duration) Dependencies {
	engine := gin.Default()

	telemetryService := services.NewTelemetryService(gormDB)
	assetsService := services.NewAssetsService(gormDB)
	predictionsService := services.NewPredictionsService(gormDB)
	alertsService := services.NewAlertsService(gormDB, alertDedupWindow)
	analysisService := services.NewAnalysisService(
		analysisConfig, telemetryService, assetsService, predictionsService, alertsService)
	tagsService := services.NewTagsService(gormDB)

	return Dependencies{
		db:                 gormDB,
		engine:             engine,
		assetsService:      assetsService,
		predictionsService: predictionsService,
		alertsService:      alertsService,
		analysisService:    analysisService,
		tagsService:        tagsService,
	}
}

func MigrateDB(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&models.Asset{},
		&models.TelemetrySample{},
		&models.Prediction{},
		&models.Alert{},
		&models.Tag{},
		&datapipeline.CollectEvent{},
		&datapipeline.Checkpoint{},
	)
}

func NewAppWithDeps(host string, port int, deps Dependencies) (*App, error) {
	app := &App{
		Dependencies: deps,
		host:         host,
		port:         port,
	}

	if err := MigrateDB(deps.db); err != nil {
		return nil, errors.Wrap(err, "could not migrate the database")
	}

	collectEventCh := datapipeline.StartProjectorsWorkerPool(deps.db)

	engine := deps.engine
	engine.Use(ErrorHandler)

	apiGroup := engine.Group("/api")
	{
		apiGroup.GET("/ping", ApiPingHandler)
		apiGroup.GET("/health", ApiHealthHandler(deps.db))
		apiGroup.POST("/collect", ApiCollectDataHandler(deps.db, collectEventCh))
		apiGroup.GET("/assets", ApiAssetsListHandler(deps.assetsService))
		apiGroup.GET("/assets/:id", ApiAssetHandler(deps.assetsService))
		apiGroup.GET("/assets/:id/analysis", ApiAssetFullAnalysisHandler(deps.assetsService, deps.analysisService))
		apiGroup.GET("/assets/:id/analysis/disk", ApiAssetDiskPredictionHandler(deps.assetsService, deps.analysisService))
		apiGroup.GET("/assets/:id/analysis/anomalies", ApiAssetAnomaliesHandler(deps.assetsService, deps.analysisService))
		apiGroup.GET("/assets/:id/analysis/performance", ApiAssetPerformanceHandler(deps.assetsService, deps.analysisService))
		apiGroup.GET("/assets/:id/predictions", ApiAssetPredictionsHandler(deps.assetsService, deps.predictionsService))
		apiGroup.GET("/assets/:id/alerts", ApiAssetAlertsHandler(deps.assetsService, deps.alertsService))
		apiGroup.GET("/assets/:id/tags", ApiAssetTagsHandler(deps.assetsService, deps.tagsService))
		apiGroup.POST("/assets/:id/tags", ApiAssetCreateTagHandler(deps.assetsService, deps.tagsService))
		apiGroup.DELETE("/assets/:id/tags/:tag", ApiAssetDeleteTagHandler(deps.assetsService, deps.tagsService))
		apiGroup.GET("/tags", ApiTagsListHandler(deps.tagsService))
		apiGroup.POST("/analysis/sweep", ApiAnalysisSweepHandler(deps.analysisService))
		apiGroup.GET("/statistics", ApiStatisticsHandler(deps.assetsService, deps.predictionsService, deps.alertsService))
	}

	return app, nil
}

func (a *App) Start() error {
	s := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", a.host, a.port),
		Handler:        a,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	return s.ListenAndServe()
}

func (a *App) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	a.engine.ServeHTTP(w, req)
}
