package web

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/vigilo-project/vigilo/internal/analysis"
	"github.com/vigilo-project/vigilo/version"
	"github.com/vigilo-project/vigilo/web/datapipeline"
	"github.com/vigilo-project/vigilo/web/models"
	"github.com/vigilo-project/vigilo/web/services"
)

func ApiPingHandler(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}

// ApiHealthHandler godoc
// @Summary Report the service health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/health [get]
func ApiHealthHandler(gormDB *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		database := "connected"

		sqlDB, err := gormDB.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			status = "degraded"
			database = "unreachable"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    status,
			"service":   "vigilo",
			"version":   version.Version,
			"database":  database,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ApiCollectDataHandler godoc
// @Summary Ingest a collected payload from an agent
// @Accept json
// @Produce json
// @Param Body body datapipeline.CollectEvent true "The collected payload"
// @Success 202 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/collect [post]
func ApiCollectDataHandler(gormDB *gorm.DB, collectEventCh chan *datapipeline.CollectEvent) gin.HandlerFunc {
	return func(c *gin.Context) {
		var event datapipeline.CollectEvent

		if err := c.BindJSON(&event); err != nil {
			_ = c.Error(UnprocessableEntityError("unable to parse JSON body"))
			return
		}

		if err := gormDB.Create(&event).Error; err != nil {
			_ = c.Error(err)
			return
		}

		collectEventCh <- &event

		c.JSON(http.StatusAccepted, gin.H{})
	}
}

// ApiAssetsListHandler godoc
// @Summary List all monitored assets
// @Produce json
// @Success 200 {object} []models.Asset
// @Failure 500 {object} map[string]string
// @Router /api/assets [get]
func ApiAssetsListHandler(assetsService *services.AssetsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assets, err := assetsService.GetAll()
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, assets)
	}
}

// ApiAssetHandler godoc
// @Summary Get a single asset
// @Produce json
// @Param id path string true "Asset id"
// @Success 200 {object} models.Asset
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id} [get]
func ApiAssetHandler(assetsService *services.AssetsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		asset, err := assetsService.GetByID(c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}

		if asset == nil {
			_ = c.Error(NotFoundError("could not find asset"))
			return
		}

		c.JSON(http.StatusOK, asset)
	}
}

// ApiAssetDiskPredictionHandler godoc
// @Summary Predict when the asset's disk will be full
// @Produce json
// @Param id path string true "Asset id"
// @Success 200 {object} analysis.DiskPrediction
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/analysis/disk [get]
func ApiAssetDiskPredictionHandler(assetsService *services.AssetsService, analysisService *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		prediction, err := analysisService.RunDiskPrediction(c.Request.Context(), assetID)
		writeAnalysisResponse(c, prediction, err)
	}
}

// ApiAssetAnomaliesHandler godoc
// @Summary Detect anomalies in the asset's recent telemetry
// @Produce json
// @Param id path string true "Asset id"
// @Success 200 {object} analysis.AnomalyReport
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/analysis/anomalies [get]
func ApiAssetAnomaliesHandler(assetsService *services.AssetsService, analysisService *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		report, err := analysisService.RunAnomalyDetection(c.Request.Context(), assetID)
		writeAnalysisResponse(c, report, err)
	}
}

// ApiAssetPerformanceHandler godoc
// @Summary Analyze the asset's performance
// @Produce json
// @Param id path string true "Asset id"
// @Success 200 {object} analysis.PerformanceReport
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/analysis/performance [get]
func ApiAssetPerformanceHandler(assetsService *services.AssetsService, analysisService *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		report, err := analysisService.RunPerformanceAnalysis(c.Request.Context(), assetID)
		writeAnalysisResponse(c, report, err)
	}
}

// ApiAssetFullAnalysisHandler godoc
// @Summary Run all analysis models on the asset
// @Produce json
// @Param id path string true "Asset id"
// @Success 200 {object} services.AssetAnalysis
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/analysis [get]
func ApiAssetFullAnalysisHandler(assetsService *services.AssetsService, analysisService *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, analysisService.RunFullAnalysis(c.Request.Context(), assetID))
	}
}

// ApiAnalysisSweepHandler godoc
// @Summary Run the full analysis on every active asset
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /api/analysis/sweep [post]
func ApiAnalysisSweepHandler(analysisService *services.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		results, err := analysisService.AnalyzeFleet(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": fmt.Sprintf("Analyzed %d assets", len(results)),
			"results": results,
		})
	}
}

// ApiAssetPredictionsHandler godoc
// @Summary List the asset's stored predictions
// @Produce json
// @Param id path string true "Asset id"
// @Param type query string false "Prediction type"
// @Param limit query int false "Maximum number of predictions"
// @Success 200 {object} []models.Prediction
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/predictions [get]
func ApiAssetPredictionsHandler(assetsService *services.AssetsService, predictionsService *services.PredictionsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		limit := 0
		if rawLimit := c.Query("limit"); rawLimit != "" {
			var err error
			limit, err = strconv.Atoi(rawLimit)
			if err != nil {
				_ = c.Error(BadRequestError("limit must be a number"))
				return
			}
		}

		predictions, err := predictionsService.List(assetID, c.Query("type"), limit)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, predictions)
	}
}

// ApiAssetAlertsHandler godoc
// @Summary List the asset's alerts
// @Produce json
// @Param id path string true "Asset id"
// @Success 200 {object} []models.Alert
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/alerts [get]
func ApiAssetAlertsHandler(assetsService *services.AssetsService, alertsService *services.AlertsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		alerts, err := alertsService.ListByAsset(assetID)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, alerts)
	}
}

type JSONTag struct {
	Tag string `json:"tag" binding:"required,min=3,max=50"`
}

// ApiAssetTagsHandler godoc
// @Summary List the asset's tags
// @Produce json
// @Param id path string true "Asset id"
// @Success 200 {object} []string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/tags [get]
func ApiAssetTagsHandler(assetsService *services.AssetsService, tagsService *services.TagsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		tags, err := tagsService.GetAllByResource(models.TagAssetResourceType, assetID)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, tags)
	}
}

// ApiAssetCreateTagHandler godoc
// @Summary Attach a tag to an asset
// @Accept json
// @Produce json
// @Param id path string true "Asset id"
// @Param Body body JSONTag true "The tag to attach"
// @Success 201 {object} JSONTag
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/tags [post]
func ApiAssetCreateTagHandler(assetsService *services.AssetsService, tagsService *services.TagsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		var tag JSONTag
		if err := c.BindJSON(&tag); err != nil {
			_ = c.Error(UnprocessableEntityError("unable to parse JSON body"))
			return
		}

		if err := tagsService.Create(tag.Tag, models.TagAssetResourceType, assetID); err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusCreated, &tag)
	}
}

// ApiAssetDeleteTagHandler godoc
// @Summary Detach a tag from an asset
// @Param id path string true "Asset id"
// @Param tag path string true "Tag value"
// @Success 204 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/assets/{id}/tags/{tag} [delete]
func ApiAssetDeleteTagHandler(assetsService *services.AssetsService, tagsService *services.TagsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		assetID, ok := lookupAsset(c, assetsService)
		if !ok {
			return
		}

		if err := tagsService.Delete(c.Param("tag"), models.TagAssetResourceType, assetID); err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusNoContent, nil)
	}
}

// ApiTagsListHandler godoc
// @Summary List all the tags in use
// @Produce json
// @Param resource_type query string false "Filter by resource type"
// @Success 200 {object} []string
// @Failure 500 {object} map[string]string
// @Router /api/tags [get]
func ApiTagsListHandler(tagsService *services.TagsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		resourceTypeFilter := c.QueryArray("resource_type")

		tags, err := tagsService.GetAll(resourceTypeFilter...)
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, tags)
	}
}

// ApiStatisticsHandler godoc
// @Summary Summarize the monitored fleet and stored analysis results
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} map[string]string
// @Router /api/statistics [get]
func ApiStatisticsHandler(
	assetsService *services.AssetsService,
	predictionsService *services.PredictionsService,
	alertsService *services.AlertsService,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		assets, err := assetsService.GetAll()
		if err != nil {
			_ = c.Error(err)
			return
		}

		activeAssets := 0
		for _, asset := range assets {
			if asset.Status == models.AssetStatusActive {
				activeAssets++
			}
		}

		predictionsByType, err := predictionsService.CountByType()
		if err != nil {
			_ = c.Error(err)
			return
		}

		predictionsLast24h, err := predictionsService.CountSince(time.Now().Add(-24 * time.Hour))
		if err != nil {
			_ = c.Error(err)
			return
		}

		mlAlertsTotal, err := alertsService.CountMLGenerated()
		if err != nil {
			_ = c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"total_assets":         len(assets),
			"active_assets":        activeAssets,
			"predictions_by_type":  predictionsByType,
			"predictions_last_24h": predictionsLast24h,
			"ml_alerts_total":      mlAlertsTotal,
		})
	}
}

// lookupAsset resolves the asset id from the route, attaching a 404 to
// the context when the asset is unknown
func lookupAsset(c *gin.Context, assetsService *services.AssetsService) (string, bool) {
	asset, err := assetsService.GetByID(c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return "", false
	}

	if asset == nil {
		_ = c.Error(NotFoundError("could not find asset"))
		return "", false
	}

	return asset.ID, true
}

// writeAnalysisResponse renders an analysis outcome. Expected analysis
// failures, too little data or an unreliable fit, are a 200 with the
// reason, everything else bubbles up as a server error.
func writeAnalysisResponse(c *gin.Context, result interface{}, err error) {
	if err == nil {
		c.JSON(http.StatusOK, result)
		return
	}

	if errors.Is(err, analysis.ErrInsufficientData) || errors.Is(err, analysis.ErrUnreliableFit) {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}

	_ = c.Error(err)
}
