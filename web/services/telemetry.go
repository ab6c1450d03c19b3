package services

import (
	"context"
	"time"

	"github.com/vigilo-project/vigilo/internal/analysis"
	"github.com/vigilo-project/vigilo/web/models"
	"gorm.io/gorm"
)

type TelemetryService struct {
	db *gorm.DB
}

func NewTelemetryService(db *gorm.DB) *TelemetryService {
	return &TelemetryService{db: db}
}

// FetchWindow loads the asset's samples since the cutoff as an analysis
// window, ascending by timestamp
func (s *TelemetryService) FetchWindow(ctx context.Context, assetID string, since time.Time) (analysis.Window, error) {
	var samples []models.TelemetrySample

	err := s.db.WithContext(ctx).
		Where("asset_id = ? AND timestamp >= ?", assetID, since).
		Order("timestamp asc").
		Find(&samples).Error
	if err != nil {
		return nil, err
	}

	windowSamples := make([]analysis.Sample, 0, len(samples))
	for _, sample := range samples {
		windowSamples = append(windowSamples, analysis.Sample{
			Timestamp:        sample.Timestamp,
			CPUUsagePercent:  sample.CPUUsagePercent,
			RAMUsagePercent:  sample.RAMUsagePercent,
			DiskUsagePercent: sample.DiskUsagePercent,
		})
	}

	return analysis.NewWindow(windowSamples), nil
}
