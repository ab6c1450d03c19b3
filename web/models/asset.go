package models

import (
	"time"

	"github.com/lib/pq"
)

const (
	AssetStatusActive = "Active"
	AssetStatusStale  = "Stale"
)

// Asset is a monitored machine, upserted from agent host discoveries.
// ID is derived from the machine id on the agent side and stays stable
// across re-registrations.
type Asset struct {
	ID             string `gorm:"primaryKey"`
	Hostname       string
	InstanceName   string
	IPAddresses    pq.StringArray `gorm:"type:text[]"`
	CPUModel       string
	CPUCount       int
	TotalMemoryMB  int
	TotalStorageGB int
	OSName         string
	OSVersion      string
	AgentVersion   string
	Status         string
	FirstSeen      time.Time
	LastSeen       time.Time
}
