package datapipeline

import "time"

// Checkpoint remembers the last event a projector applied per agent
type Checkpoint struct {
	ProjectorID     string `gorm:"primaryKey"`
	AgentID         string `gorm:"primaryKey"`
	LastSeenEventID int64
	SeenAt          time.Time
}

func (Checkpoint) TableName() string {
	return "projector_checkpoints"
}
