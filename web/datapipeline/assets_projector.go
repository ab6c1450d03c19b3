package datapipeline

import (
	"time"

	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
	"github.com/vigilo-project/vigilo/agent/readings"
	"github.com/vigilo-project/vigilo/web/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func NewAssetsProjector(db *gorm.DB) *Projector {
	assetsProjector := NewProjector("assets", db)

	assetsProjector.AddHandler(HostCollect, assetsProjector_HostCollectHandler)
	assetsProjector.AddHandler(TelemetryCollect, assetsProjector_TelemetryCollectHandler)

	return assetsProjector
}

func assetsProjector_HostCollectHandler(collectEvent *CollectEvent, db *gorm.DB) error {
	decoder := payloadDecoder(collectEvent.Payload)

	var discoveredHost readings.HostReading
	if err := decoder.Decode(&discoveredHost); err != nil {
		log.Errorf("can't decode data: %s", err)
		return err
	}

	now := time.Now()
	assetReadModel := models.Asset{
		ID:             collectEvent.AgentID,
		Hostname:       discoveredHost.Hostname,
		InstanceName:   discoveredHost.InstanceName,
		IPAddresses:    pq.StringArray(discoveredHost.IPAddresses),
		CPUModel:       discoveredHost.CPUModel,
		CPUCount:       discoveredHost.CPUCount,
		TotalMemoryMB:  discoveredHost.TotalMemoryMB,
		TotalStorageGB: discoveredHost.TotalStorageGB,
		OSName:         discoveredHost.OSName,
		OSVersion:      discoveredHost.OSVersion,
		AgentVersion:   discoveredHost.AgentVersion,
		Status:         models.AssetStatusActive,
		FirstSeen:      now,
		LastSeen:       now,
	}

	return storeAsset(db, assetReadModel,
		"hostname",
		"instance_name",
		"ip_addresses",
		"cpu_model",
		"cpu_count",
		"total_memory_mb",
		"total_storage_gb",
		"os_name",
		"os_version",
		"agent_version",
		"status",
		"last_seen",
	)
}

// assetsProjector_TelemetryCollectHandler keeps liveness fresh on every
// sample. An asset row may appear here before its first host collect, the
// facts arrive with the next one.
func assetsProjector_TelemetryCollectHandler(collectEvent *CollectEvent, db *gorm.DB) error {
	now := time.Now()
	assetReadModel := models.Asset{
		ID:        collectEvent.AgentID,
		Status:    models.AssetStatusActive,
		FirstSeen: now,
		LastSeen:  now,
	}

	return storeAsset(db, assetReadModel, "status", "last_seen")
}

// storeAsset upserts on the asset id, first_seen survives every update
func storeAsset(db *gorm.DB, assetReadModel models.Asset, updateProperties ...string) error {
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "id"},
		},
		DoUpdates: clause.AssignmentColumns(updateProperties),
	}).Create(&assetReadModel).Error
}
