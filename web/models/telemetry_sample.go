package models

import "time"

// TelemetrySample is one agent reading. Rows are append-only, analysis
// windows rely on (asset_id, timestamp) lookups staying cheap.
type TelemetrySample struct {
	ID               uint      `gorm:"primaryKey"`
	AssetID          string    `gorm:"index:idx_samples_asset_timestamp"`
	Timestamp        time.Time `gorm:"index:idx_samples_asset_timestamp"`
	CPUUsagePercent  float64
	RAMUsagePercent  float64
	DiskUsagePercent float64
	NetworkInKbps    float64
	NetworkOutKbps   float64
	ProcessCount     int
	UptimeHours      float64
}
