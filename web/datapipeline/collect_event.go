package datapipeline

import (
	"time"

	"gorm.io/datatypes"
)

const (
	HostCollect      = "host"
	TelemetryCollect = "telemetry"
)

// CollectEvent is the raw envelope an agent posts to the collector API.
// Events are stored append-only before projection, the monotonic ID is the
// projector checkpoint cursor.
type CollectEvent struct {
	ID          int64          `json:"-"`
	CreatedAt   time.Time      `json:"-"`
	AgentID     string         `json:"agent_id" binding:"required"`
	CollectType string         `json:"collect_type" binding:"required"`
	Payload     datatypes.JSON `json:"payload" binding:"required"`
}

func (CollectEvent) TableName() string {
	return "collect_events"
}
