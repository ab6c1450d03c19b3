package datapipeline

import (
	"bytes"
	"encoding/json"

	log "github.com/sirupsen/logrus"
	"github.com/vigilo-project/vigilo/agent/readings"
	"github.com/vigilo-project/vigilo/web/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func NewTelemetryProjector(db *gorm.DB) *Projector {
	telemetryProjector := NewProjector("telemetry", db)

	telemetryProjector.AddHandler(TelemetryCollect, telemetryProjector_TelemetryCollectHandler)

	return telemetryProjector
}

// telemetryProjector_TelemetryCollectHandler appends one sample row per
// event. Samples are never updated, the analysis windows depend on the
// series staying append-only.
func telemetryProjector_TelemetryCollectHandler(collectEvent *CollectEvent, db *gorm.DB) error {
	decoder := payloadDecoder(collectEvent.Payload)

	var reading readings.TelemetryReading
	if err := decoder.Decode(&reading); err != nil {
		log.Errorf("can't decode data: %s", err)
		return err
	}

	timestamp := reading.Timestamp
	if timestamp.IsZero() {
		timestamp = collectEvent.CreatedAt
	}

	return db.Create(&models.TelemetrySample{
		AssetID:          collectEvent.AgentID,
		Timestamp:        timestamp,
		CPUUsagePercent:  reading.CPUUsagePercent,
		RAMUsagePercent:  reading.RAMUsagePercent,
		DiskUsagePercent: reading.DiskUsagePercent,
		NetworkInKbps:    reading.NetworkInKbps,
		NetworkOutKbps:   reading.NetworkOutKbps,
		ProcessCount:     reading.ProcessCount,
		UptimeHours:      reading.UptimeHours,
	}).Error
}

func payloadDecoder(payload datatypes.JSON) *json.Decoder {
	data, _ := payload.MarshalJSON()
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	return decoder
}
