package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/vigilo-project/vigilo/agent/readings/mocks"
	"github.com/vigilo-project/vigilo/internal/analysis"
	_ "github.com/vigilo-project/vigilo/test"
	"github.com/vigilo-project/vigilo/test/helpers"
	"github.com/vigilo-project/vigilo/web/models"
)

type ApiTestSuite struct {
	suite.Suite
	db  *gorm.DB
	app *App
}

func TestApiTestSuite(t *testing.T) {
	suite.Run(t, new(ApiTestSuite))
}

func (suite *ApiTestSuite) SetupSuite() {
	suite.db = helpers.SetupTestDatabase(suite.T())

	deps := NewDependencies(suite.db, analysis.DefaultConfig(), 0)

	app, err := NewAppWithDeps("localhost", 8080, deps)
	if err != nil {
		suite.T().Fatal(err)
	}
	suite.app = app
}

func (suite *ApiTestSuite) TearDownSuite() {
	suite.db.Exec("DROP TABLE IF EXISTS assets, telemetry_samples, predictions, alerts, tags, collect_events, projector_checkpoints")
}

func (suite *ApiTestSuite) SetupTest() {
	suite.db.Exec("TRUNCATE TABLE assets, telemetry_samples, predictions, alerts, tags, collect_events, projector_checkpoints")
}

func (suite *ApiTestSuite) get(url string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", url, nil)
	suite.app.ServeHTTP(resp, req)

	return resp
}

func (suite *ApiTestSuite) post(url string, body []byte) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", url, bytes.NewBuffer(body))
	suite.app.ServeHTTP(resp, req)

	return resp
}

func (suite *ApiTestSuite) deleteReq(url string) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	req, _ := http.NewRequest("DELETE", url, nil)
	suite.app.ServeHTTP(resp, req)

	return resp
}

func (suite *ApiTestSuite) decodeBody(resp *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &body))

	return body
}

func (suite *ApiTestSuite) createAsset(id string, status string, lastSeen time.Time) {
	suite.NoError(suite.db.Create(&models.Asset{
		ID:       id,
		Hostname: fmt.Sprintf("host-%s", id),
		Status:   status,
		LastSeen: lastSeen,
	}).Error)
}

func (suite *ApiTestSuite) createGrowingDiskSamples(assetID string, count int) {
	base := time.Now().Add(-time.Duration(count-1) * time.Hour)

	for i := 0; i < count; i++ {
		suite.NoError(suite.db.Create(&models.TelemetrySample{
			AssetID:          assetID,
			Timestamp:        base.Add(time.Duration(i) * time.Hour),
			CPUUsagePercent:  30,
			RAMUsagePercent:  40,
			DiskUsagePercent: 50 + float64(i),
		}).Error)
	}
}

func (suite *ApiTestSuite) Test_ApiPing() {
	resp := suite.get("/api/ping")

	suite.Equal(http.StatusOK, resp.Code)
	suite.Equal("pong", resp.Body.String())
}

func (suite *ApiTestSuite) Test_ApiHealth() {
	resp := suite.get("/api/health")
	body := suite.decodeBody(resp)

	suite.Equal(http.StatusOK, resp.Code)
	suite.Equal("healthy", body["status"])
	suite.Equal("vigilo", body["service"])
	suite.Equal("connected", body["database"])
}

func (suite *ApiTestSuite) Test_ApiCollect() {
	payload, _ := json.Marshal(mocks.NewTelemetryReadingMock())
	event, _ := json.Marshal(map[string]interface{}{
		"agent_id":     "agent1",
		"collect_type": "telemetry",
		"payload":      json.RawMessage(payload),
	})

	resp := suite.post("/api/collect", event)

	suite.Equal(http.StatusAccepted, resp.Code)

	var count int64
	suite.NoError(suite.db.Table("collect_events").Count(&count).Error)
	suite.Equal(int64(1), count)

	suite.Eventually(func() bool {
		var samples int64
		suite.db.Model(&models.TelemetrySample{}).Where("asset_id = ?", "agent1").Count(&samples)
		return samples == 1
	}, time.Second, 10*time.Millisecond)
}

func (suite *ApiTestSuite) Test_ApiCollect_MalformedBody() {
	resp := suite.post("/api/collect", []byte(`{]`))

	suite.Equal(http.StatusUnprocessableEntity, resp.Code)

	var count int64
	suite.NoError(suite.db.Table("collect_events").Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *ApiTestSuite) Test_ApiAssetsList() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())
	suite.createAsset("asset2", models.AssetStatusStale, time.Now().Add(-48*time.Hour))

	resp := suite.get("/api/assets")

	suite.Equal(http.StatusOK, resp.Code)

	var assets []models.Asset
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &assets))
	suite.Equal(2, len(assets))
}

func (suite *ApiTestSuite) Test_ApiAsset() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())

	resp := suite.get("/api/assets/asset1")
	body := suite.decodeBody(resp)

	suite.Equal(http.StatusOK, resp.Code)
	suite.Equal("host-asset1", body["Hostname"])
}

func (suite *ApiTestSuite) Test_ApiAsset_NotFound() {
	resp := suite.get("/api/assets/ghost")
	body := suite.decodeBody(resp)

	suite.Equal(http.StatusNotFound, resp.Code)
	suite.Equal("could not find asset", body["error"])
}

func (suite *ApiTestSuite) Test_ApiAssetDiskPrediction() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())
	suite.createGrowingDiskSamples("asset1", 24)

	resp := suite.get("/api/assets/asset1/analysis/disk")
	body := suite.decodeBody(resp)

	suite.Equal(http.StatusOK, resp.Code)
	suite.Equal(true, body["success"])
	suite.Equal(1.1, body["days_remaining"])

	var predictions []models.Prediction
	suite.NoError(suite.db.Find(&predictions).Error)
	suite.Equal(1, len(predictions))
	suite.Equal(models.PredictionTypeDiskSpace, predictions[0].PredictionType)

	var alerts []models.Alert
	suite.NoError(suite.db.Find(&alerts).Error)
	suite.Equal(1, len(alerts))
	suite.Equal("High", alerts[0].Severity)
	suite.Equal("ML Prediction: Disk will be full in 1.1 days", alerts[0].Message)
}

func (suite *ApiTestSuite) Test_ApiAssetDiskPrediction_InsufficientData() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())
	suite.createGrowingDiskSamples("asset1", 2)

	resp := suite.get("/api/assets/asset1/analysis/disk")
	body := suite.decodeBody(resp)

	suite.Equal(http.StatusOK, resp.Code)
	suite.Equal(false, body["success"])
	suite.Contains(body["message"], "has 2 samples")

	var count int64
	suite.NoError(suite.db.Model(&models.Prediction{}).Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *ApiTestSuite) Test_ApiAssetDiskPrediction_UnknownAsset() {
	resp := suite.get("/api/assets/ghost/analysis/disk")

	suite.Equal(http.StatusNotFound, resp.Code)
}

func (suite *ApiTestSuite) Test_ApiAssetFullAnalysis() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())

	resp := suite.get("/api/assets/asset1/analysis")
	body := suite.decodeBody(resp)

	suite.Equal(http.StatusOK, resp.Code)
	suite.Equal("asset1", body["asset_id"])
	suite.Nil(body["disk_prediction"])
	suite.Nil(body["anomaly_detection"])
	suite.Nil(body["performance_analysis"])
}

func (suite *ApiTestSuite) Test_ApiAnalysisSweep() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())
	suite.createGrowingDiskSamples("asset1", 24)
	suite.createAsset("asset2", models.AssetStatusStale, time.Now().Add(-48*time.Hour))

	resp := suite.post("/api/analysis/sweep", nil)
	body := suite.decodeBody(resp)

	suite.Equal(http.StatusOK, resp.Code)
	suite.Equal(true, body["success"])
	suite.Equal("Analyzed 1 assets", body["message"])
	suite.Equal(1, len(body["results"].([]interface{})))

	var count int64
	suite.NoError(suite.db.Model(&models.Prediction{}).Where("asset_id = ?", "asset1").Count(&count).Error)
	suite.Equal(int64(3), count)
}

func (suite *ApiTestSuite) Test_ApiAssetPredictions() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())

	base := time.Now().Add(-1 * time.Hour)
	for i, predictionType := range []string{
		models.PredictionTypeDiskSpace,
		models.PredictionTypeDiskSpace,
		models.PredictionTypeAnomaly,
	} {
		suite.NoError(suite.db.Create(&models.Prediction{
			AssetID:        "asset1",
			PredictionType: predictionType,
			ModelVersion:   analysis.ModelVersion,
			Payload:        []byte(`{}`),
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	resp := suite.get("/api/assets/asset1/predictions")
	var predictions []models.Prediction
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &predictions))
	suite.Equal(3, len(predictions))

	resp = suite.get("/api/assets/asset1/predictions?type=anomaly_detection")
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &predictions))
	suite.Equal(1, len(predictions))

	resp = suite.get("/api/assets/asset1/predictions?limit=1")
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &predictions))
	suite.Equal(1, len(predictions))

	resp = suite.get("/api/assets/asset1/predictions?limit=nope")
	suite.Equal(http.StatusBadRequest, resp.Code)
}

func (suite *ApiTestSuite) Test_ApiAssetAlerts() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())

	now := time.Now()
	suite.NoError(suite.db.Create(&models.Alert{
		AssetID: "asset1", Type: models.AlertTypeMLPrediction, Severity: "High",
		Message: "older", Status: models.AlertStatusOpen, MLGenerated: true,
		Payload: []byte(`{}`), CreatedAt: now.Add(-2 * time.Hour),
	}).Error)
	suite.NoError(suite.db.Create(&models.Alert{
		AssetID: "asset1", Type: models.AlertTypePerformanceAnomaly, Severity: "Medium",
		Message: "newer", Status: models.AlertStatusOpen, MLGenerated: true,
		Payload: []byte(`{}`), CreatedAt: now.Add(-1 * time.Hour),
	}).Error)

	resp := suite.get("/api/assets/asset1/alerts")

	var alerts []models.Alert
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &alerts))
	suite.Equal(2, len(alerts))
	suite.Equal("newer", alerts[0].Message)
}

func (suite *ApiTestSuite) Test_ApiAssetTags() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())

	resp := suite.post("/api/assets/asset1/tags", []byte(`{"tag": "production"}`))
	suite.Equal(http.StatusCreated, resp.Code)

	resp = suite.post("/api/assets/asset1/tags", []byte(`{"tag": "database"}`))
	suite.Equal(http.StatusCreated, resp.Code)

	resp = suite.get("/api/assets/asset1/tags")
	suite.Equal(http.StatusOK, resp.Code)

	var tags []string
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &tags))
	suite.Equal([]string{"database", "production"}, tags)
}

func (suite *ApiTestSuite) Test_ApiAssetTags_CreateRejectsShortTag() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())

	resp := suite.post("/api/assets/asset1/tags", []byte(`{"tag": "ab"}`))

	suite.Equal(http.StatusUnprocessableEntity, resp.Code)

	var count int64
	suite.NoError(suite.db.Model(&models.Tag{}).Count(&count).Error)
	suite.Equal(int64(0), count)
}

func (suite *ApiTestSuite) Test_ApiAssetTags_CreateUnknownAsset() {
	resp := suite.post("/api/assets/ghost/tags", []byte(`{"tag": "production"}`))

	suite.Equal(http.StatusNotFound, resp.Code)
}

func (suite *ApiTestSuite) Test_ApiAssetTags_Delete() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())
	suite.NoError(suite.db.Create(&models.Tag{
		Value: "production", ResourceType: models.TagAssetResourceType, ResourceId: "asset1",
	}).Error)
	suite.NoError(suite.db.Create(&models.Tag{
		Value: "staging", ResourceType: models.TagAssetResourceType, ResourceId: "asset1",
	}).Error)

	resp := suite.deleteReq("/api/assets/asset1/tags/production")

	suite.Equal(http.StatusNoContent, resp.Code)

	var tags []models.Tag
	suite.NoError(suite.db.Find(&tags).Error)
	suite.Equal(1, len(tags))
	suite.Equal("staging", tags[0].Value)
}

func (suite *ApiTestSuite) Test_ApiTagsList() {
	suite.NoError(suite.db.Create(&models.Tag{
		Value: "production", ResourceType: models.TagAssetResourceType, ResourceId: "asset1",
	}).Error)
	suite.NoError(suite.db.Create(&models.Tag{
		Value: "staging", ResourceType: models.TagAssetResourceType, ResourceId: "asset2",
	}).Error)

	resp := suite.get("/api/tags")
	suite.Equal(http.StatusOK, resp.Code)

	var tags []string
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &tags))
	suite.Equal([]string{"production", "staging"}, tags)

	resp = suite.get("/api/tags?resource_type=unknown_resource")
	suite.NoError(json.Unmarshal(resp.Body.Bytes(), &tags))
	suite.Empty(tags)
}

func (suite *ApiTestSuite) Test_ApiStatistics() {
	suite.createAsset("asset1", models.AssetStatusActive, time.Now())
	suite.createAsset("asset2", models.AssetStatusStale, time.Now().Add(-48*time.Hour))

	suite.NoError(suite.db.Create(&models.Prediction{
		AssetID: "asset1", PredictionType: models.PredictionTypeDiskSpace,
		ModelVersion: analysis.ModelVersion, Payload: []byte(`{}`),
	}).Error)
	suite.NoError(suite.db.Create(&models.Alert{
		AssetID: "asset1", Type: models.AlertTypeMLPrediction, Severity: "High",
		Message: "ML Prediction: Disk will be full in 2.5 days",
		Status:  models.AlertStatusOpen, MLGenerated: true, Payload: []byte(`{}`),
	}).Error)

	resp := suite.get("/api/statistics")
	body := suite.decodeBody(resp)

	suite.Equal(http.StatusOK, resp.Code)
	suite.EqualValues(2, body["total_assets"])
	suite.EqualValues(1, body["active_assets"])
	suite.EqualValues(1, body["predictions_last_24h"])
	suite.EqualValues(1, body["ml_alerts_total"])

	byType := body["predictions_by_type"].(map[string]interface{})
	suite.EqualValues(1, byType[models.PredictionTypeDiskSpace])
}
