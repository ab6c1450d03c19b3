package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AlertTypeMLPrediction              = "ml_prediction"
	AlertTypePerformanceAnomaly        = "performance_anomaly"
	AlertTypeMaintenanceRecommendation = "maintenance_recommendation"
)

const (
	AlertStatusOpen     = "Open"
	AlertStatusResolved = "Resolved"
)

type Alert struct {
	ID          uint   `gorm:"primaryKey"`
	AssetID     string `gorm:"index"`
	Type        string
	Severity    string
	Message     string
	Status      string
	MLGenerated bool
	EmailSent   bool
	Payload     datatypes.JSON
	CreatedAt   time.Time
}
