package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	PredictionTypeDiskSpace   = "disk_space_prediction"
	PredictionTypeAnomaly     = "anomaly_detection"
	PredictionTypePerformance = "performance_analysis"
)

// Prediction is the persisted outcome of one successful analysis run.
// Payload carries the full analyzer result as produced, append-only.
type Prediction struct {
	ID             uint   `gorm:"primaryKey"`
	AssetID        string `gorm:"index"`
	PredictionType string
	ModelVersion   string
	Payload        datatypes.JSON
	CreatedAt      time.Time
}
