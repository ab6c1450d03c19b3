package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vigilo-project/vigilo/internal/analysis"
	"github.com/vigilo-project/vigilo/web/models"
	"gorm.io/datatypes"
)

type telemetryReader interface {
	FetchWindow(ctx context.Context, assetID string, since time.Time) (analysis.Window, error)
}

type activeAssetsLister interface {
	ListActiveIDs(ctx context.Context, activeWithin time.Duration) ([]string, error)
}

type predictionWriter interface {
	Insert(ctx context.Context, assetID string, predictionType string, payload interface{}) error
}

type alertWriter interface {
	Insert(ctx context.Context, alert *models.Alert) error
}

// AssetAnalysis bundles the outcome of one full analysis run. A model
// that failed or was skipped leaves its field nil, the others still
// carry their results.
type AssetAnalysis struct {
	AssetID             string                      `json:"asset_id"`
	Timestamp           string                      `json:"timestamp"`
	DiskPrediction      *analysis.DiskPrediction    `json:"disk_prediction"`
	AnomalyDetection    *analysis.AnomalyReport     `json:"anomaly_detection"`
	PerformanceAnalysis *analysis.PerformanceReport `json:"performance_analysis"`
}

// AnalysisService runs the analysis models over stored telemetry and
// persists their results and the alerts they imply
type AnalysisService struct {
	cfg         analysis.Config
	detector    *analysis.AnomalyDetector
	telemetry   telemetryReader
	assets      activeAssetsLister
	predictions predictionWriter
	alerts      alertWriter
}

func NewAnalysisService(
	cfg analysis.Config,
	telemetry telemetryReader,
	assets activeAssetsLister,
	predictions predictionWriter,
	alerts alertWriter,
) *AnalysisService {
	return &AnalysisService{
		cfg:         cfg,
		detector:    analysis.NewAnomalyDetector(cfg),
		telemetry:   telemetry,
		assets:      assets,
		predictions: predictions,
		alerts:      alerts,
	}
}

// RunDiskPrediction fits the disk growth trend on the asset's baseline
// window, persists the prediction and raises an alert when saturation
// is close
func (s *AnalysisService) RunDiskPrediction(ctx context.Context, assetID string) (*analysis.DiskPrediction, error) {
	window, err := s.telemetry.FetchWindow(ctx, assetID, time.Now().Add(-s.cfg.BaselineWindow))
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch telemetry for asset %s", assetID)
	}

	if window.Len() < s.cfg.MinimumDataPoints {
		return nil, errors.Wrapf(analysis.ErrInsufficientData,
			"asset %s has %d samples, need %d", assetID, window.Len(), s.cfg.MinimumDataPoints)
	}

	prediction, err := analysis.PredictDiskFull(window)
	if err != nil {
		return nil, err
	}

	if err := s.predictions.Insert(ctx, assetID, models.PredictionTypeDiskSpace, prediction); err != nil {
		return nil, errors.Wrap(err, "could not persist disk prediction")
	}

	if err := s.raiseDiskAlert(ctx, assetID, prediction); err != nil {
		return nil, err
	}

	return prediction, nil
}

// RunAnomalyDetection scores the asset's recent samples against its
// baseline window, persists the report and raises an alert when the
// anomalies warrant one
func (s *AnalysisService) RunAnomalyDetection(ctx context.Context, assetID string) (*analysis.AnomalyReport, error) {
	now := time.Now()

	baseline, err := s.telemetry.FetchWindow(ctx, assetID, now.Add(-s.cfg.BaselineWindow))
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch baseline telemetry for asset %s", assetID)
	}

	if baseline.Len() < s.cfg.MinimumDataPoints {
		return nil, errors.Wrapf(analysis.ErrInsufficientData,
			"asset %s has %d baseline samples, need %d", assetID, baseline.Len(), s.cfg.MinimumDataPoints)
	}

	recent, err := s.telemetry.FetchWindow(ctx, assetID, now.Add(-s.cfg.RecentWindow))
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch recent telemetry for asset %s", assetID)
	}

	if recent.Len() < s.cfg.RecentMinimum {
		return nil, errors.Wrapf(analysis.ErrInsufficientData,
			"asset %s has %d recent samples, need %d", assetID, recent.Len(), s.cfg.RecentMinimum)
	}

	report, err := s.detector.Detect(recent, baseline)
	if err != nil {
		return nil, err
	}

	if err := s.predictions.Insert(ctx, assetID, models.PredictionTypeAnomaly, report); err != nil {
		return nil, errors.Wrap(err, "could not persist anomaly report")
	}

	if err := s.raiseAnomalyAlert(ctx, assetID, report); err != nil {
		return nil, err
	}

	return report, nil
}

// RunPerformanceAnalysis computes usage statistics and recommendations
// over the asset's baseline window, persists the report and raises an
// alert for each high priority recommendation
func (s *AnalysisService) RunPerformanceAnalysis(ctx context.Context, assetID string) (*analysis.PerformanceReport, error) {
	window, err := s.telemetry.FetchWindow(ctx, assetID, time.Now().Add(-s.cfg.BaselineWindow))
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch telemetry for asset %s", assetID)
	}

	if window.Len() < s.cfg.MinimumDataPoints {
		return nil, errors.Wrapf(analysis.ErrInsufficientData,
			"asset %s has %d samples, need %d", assetID, window.Len(), s.cfg.MinimumDataPoints)
	}

	report, err := analysis.AnalyzePerformance(window)
	if err != nil {
		return nil, err
	}

	if err := s.predictions.Insert(ctx, assetID, models.PredictionTypePerformance, report); err != nil {
		return nil, errors.Wrap(err, "could not persist performance report")
	}

	if err := s.raisePerformanceAlerts(ctx, assetID, report); err != nil {
		return nil, err
	}

	return report, nil
}

// RunFullAnalysis runs all three models on the asset. A failing model
// is logged and leaves its slot empty, it never aborts the others.
func (s *AnalysisService) RunFullAnalysis(ctx context.Context, assetID string) *AssetAnalysis {
	result := &AssetAnalysis{
		AssetID:   assetID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	prediction, err := s.RunDiskPrediction(ctx, assetID)
	if err != nil {
		logAnalysisFailure("disk prediction", assetID, err)
	} else {
		result.DiskPrediction = prediction
	}

	anomalies, err := s.RunAnomalyDetection(ctx, assetID)
	if err != nil {
		logAnalysisFailure("anomaly detection", assetID, err)
	} else {
		result.AnomalyDetection = anomalies
	}

	performance, err := s.RunPerformanceAnalysis(ctx, assetID)
	if err != nil {
		logAnalysisFailure("performance analysis", assetID, err)
	} else {
		result.PerformanceAnalysis = performance
	}

	return result
}

// AnalyzeFleet runs the full analysis on every active asset, one at a
// time. Each asset gets its own timeout and its failures never stop
// the sweep.
func (s *AnalysisService) AnalyzeFleet(ctx context.Context) ([]*AssetAnalysis, error) {
	assetIDs, err := s.assets.ListActiveIDs(ctx, s.cfg.ActivityWindow)
	if err != nil {
		return nil, errors.Wrap(err, "could not list active assets")
	}

	log.Infof("Starting analysis sweep over %d active assets", len(assetIDs))
	start := time.Now()

	results := make([]*AssetAnalysis, 0, len(assetIDs))
	for _, assetID := range assetIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		assetCtx, cancel := context.WithTimeout(ctx, s.cfg.AssetTimeout)
		results = append(results, s.RunFullAnalysis(assetCtx, assetID))
		cancel()
	}

	log.Infof("Analysis sweep completed in %s", time.Since(start))

	return results, nil
}

func (s *AnalysisService) raiseDiskAlert(ctx context.Context, assetID string, prediction *analysis.DiskPrediction) error {
	if !prediction.Success || prediction.DaysRemaining >= float64(s.cfg.DiskFullWarningDays) {
		return nil
	}

	severity := analysis.SeverityMedium
	if prediction.DaysRemaining < 3 {
		severity = analysis.SeverityHigh
	}

	return s.raiseAlert(ctx, &models.Alert{
		AssetID:  assetID,
		Type:     models.AlertTypeMLPrediction,
		Severity: string(severity),
		Message:  fmt.Sprintf("ML Prediction: Disk will be full in %.1f days", prediction.DaysRemaining),
	}, prediction)
}

func (s *AnalysisService) raiseAnomalyAlert(ctx context.Context, assetID string, report *analysis.AnomalyReport) error {
	highCount := 0
	for _, anomaly := range report.Anomalies {
		if anomaly.Severity == analysis.SeverityHigh {
			highCount++
		}
	}

	var severity analysis.Severity
	var message string

	switch {
	case highCount > 0:
		severity = analysis.SeverityHigh
		message = fmt.Sprintf("ML Alert: %d high-severity anomalies detected", highCount)
	case report.AnomalyCount >= s.cfg.AnomalyAlertThreshold:
		severity = analysis.SeverityMedium
		message = fmt.Sprintf("ML Alert: %d performance anomalies detected", report.AnomalyCount)
	default:
		return nil
	}

	return s.raiseAlert(ctx, &models.Alert{
		AssetID:  assetID,
		Type:     models.AlertTypePerformanceAnomaly,
		Severity: string(severity),
		Message:  message,
	}, report)
}

func (s *AnalysisService) raisePerformanceAlerts(ctx context.Context, assetID string, report *analysis.PerformanceReport) error {
	for _, recommendation := range report.Recommendations {
		if recommendation.Priority != analysis.SeverityHigh {
			continue
		}

		err := s.raiseAlert(ctx, &models.Alert{
			AssetID:  assetID,
			Type:     models.AlertTypeMaintenanceRecommendation,
			Severity: string(analysis.SeverityMedium),
			Message:  fmt.Sprintf("ML Recommendation: %s", recommendation.Message),
		}, recommendation)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *AnalysisService) raiseAlert(ctx context.Context, alert *models.Alert, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "could not encode alert payload")
	}
	alert.Payload = datatypes.JSON(data)

	if err := s.alerts.Insert(ctx, alert); err != nil {
		return errors.Wrap(err, "could not persist alert")
	}

	return nil
}

func logAnalysisFailure(operation string, assetID string, err error) {
	if errors.Is(err, analysis.ErrInsufficientData) || errors.Is(err, analysis.ErrUnreliableFit) {
		log.Infof("Skipping %s for asset %s: %s", operation, assetID, err)
		return
	}

	log.Errorf("Could not run %s for asset %s: %s", operation, assetID, err)
}
