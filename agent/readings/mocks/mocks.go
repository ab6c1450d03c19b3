package mocks

import (
	"time"

	"github.com/vigilo-project/vigilo/agent/readings"
)

func NewTelemetryReadingMock() *readings.TelemetryReading {
	return &readings.TelemetryReading{
		Timestamp:        time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
		CPUUsagePercent:  34.5,
		RAMUsagePercent:  61.2,
		DiskUsagePercent: 72.8,
		NetworkInKbps:    840.3,
		NetworkOutKbps:   1290.7,
		ProcessCount:     214,
		UptimeHours:      317.4,
	}
}

func NewHostReadingMock() *readings.HostReading {
	return &readings.HostReading{
		Hostname:       "earhart",
		InstanceName:   "optimal-goldfish",
		IPAddresses:    []string{"10.74.1.5", "10.74.2.5"},
		CPUModel:       "Intel(R) Xeon(R) CPU E5-2673 v4 @ 2.30GHz",
		CPUCount:       8,
		TotalMemoryMB:  32107,
		TotalStorageGB: 512,
		OSName:         "ubuntu",
		OSVersion:      "22.04",
		AgentVersion:   "dev",
	}
}
