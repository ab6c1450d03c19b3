// Package readings gathers the machine facts and utilization samples the
// agent ships to the collector endpoint. The structs double as the wire
// format of collect event payloads.
package readings

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

type TelemetryReading struct {
	Timestamp        time.Time `json:"timestamp"`
	CPUUsagePercent  float64   `json:"cpu_usage_percent"`
	RAMUsagePercent  float64   `json:"ram_usage_percent"`
	DiskUsagePercent float64   `json:"disk_usage_percent"`
	NetworkInKbps    float64   `json:"network_in_kbps"`
	NetworkOutKbps   float64   `json:"network_out_kbps"`
	ProcessCount     int       `json:"process_count"`
	UptimeHours      float64   `json:"uptime_hours"`
}

type HostReading struct {
	Hostname       string   `json:"hostname"`
	InstanceName   string   `json:"instance_name"`
	IPAddresses    []string `json:"ip_addresses"`
	CPUModel       string   `json:"cpu_model"`
	CPUCount       int      `json:"cpu_count"`
	TotalMemoryMB  int      `json:"total_memory_mb"`
	TotalStorageGB int      `json:"total_storage_gb"`
	OSName         string   `json:"os_name"`
	OSVersion      string   `json:"os_version"`
	AgentVersion   string   `json:"agent_version"`
}

// NewTelemetryReading samples current utilization. The cpu percentage is
// measured over one second, the same interval bounds the network counter
// delta the kbps rates derive from.
func NewTelemetryReading() (*TelemetryReading, error) {
	before, err := ioCounters()
	if err != nil {
		return nil, errors.Wrap(err, "could not read network counters")
	}
	start := time.Now()

	cpuPercents, err := cpu.Percent(time.Second, false)
	if err != nil {
		return nil, errors.Wrap(err, "could not measure cpu usage")
	}

	after, err := ioCounters()
	if err != nil {
		return nil, errors.Wrap(err, "could not read network counters")
	}
	elapsed := time.Since(start)

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, errors.Wrap(err, "could not read memory usage")
	}

	du, err := disk.Usage("/")
	if err != nil {
		return nil, errors.Wrap(err, "could not read disk usage")
	}

	info, err := host.Info()
	if err != nil {
		return nil, errors.Wrap(err, "could not read host info")
	}

	var cpuPercent float64
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	return &TelemetryReading{
		Timestamp:        time.Now().UTC(),
		CPUUsagePercent:  cpuPercent,
		RAMUsagePercent:  vm.UsedPercent,
		DiskUsagePercent: du.UsedPercent,
		NetworkInKbps:    kbps(after.BytesRecv-before.BytesRecv, elapsed),
		NetworkOutKbps:   kbps(after.BytesSent-before.BytesSent, elapsed),
		ProcessCount:     int(info.Procs),
		UptimeHours:      float64(info.Uptime) / 3600,
	}, nil
}

// NewHostReading collects the hardware and OS facts of the machine.
// InstanceName and AgentVersion are the caller's to fill in.
func NewHostReading() (*HostReading, error) {
	info, err := host.Info()
	if err != nil {
		return nil, errors.Wrap(err, "could not read host info")
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil, errors.Wrap(err, "could not read memory size")
	}

	du, err := disk.Usage("/")
	if err != nil {
		return nil, errors.Wrap(err, "could not read disk size")
	}

	cpuCount, err := cpu.Counts(true)
	if err != nil {
		return nil, errors.Wrap(err, "could not count cpus")
	}

	var cpuModel string
	if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
		cpuModel = cpuInfo[0].ModelName
	}

	addresses, err := ipAddresses()
	if err != nil {
		return nil, errors.Wrap(err, "could not list ip addresses")
	}

	return &HostReading{
		Hostname:       info.Hostname,
		IPAddresses:    addresses,
		CPUModel:       cpuModel,
		CPUCount:       cpuCount,
		TotalMemoryMB:  int(vm.Total / 1024 / 1024),
		TotalStorageGB: int(du.Total / 1024 / 1024 / 1024),
		OSName:         info.Platform,
		OSVersion:      info.PlatformVersion,
	}, nil
}

// ioCounters returns the counters aggregated over all interfaces
func ioCounters() (net.IOCountersStat, error) {
	counters, err := net.IOCounters(false)
	if err != nil {
		return net.IOCountersStat{}, err
	}
	if len(counters) == 0 {
		return net.IOCountersStat{}, errors.New("no network counters available")
	}

	return counters[0], nil
}

func kbps(bytes uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}

	return float64(bytes) * 8 / 1000 / elapsed.Seconds()
}

func ipAddresses() ([]string, error) {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var addresses []string
	for _, iface := range interfaces {
		if isLoopback(iface) {
			continue
		}
		for _, addr := range iface.Addrs {
			address := addr.Addr
			if i := strings.Index(address, "/"); i >= 0 {
				address = address[:i]
			}
			addresses = append(addresses, address)
		}
	}

	return addresses, nil
}

func isLoopback(iface net.InterfaceStat) bool {
	for _, flag := range iface.Flags {
		if flag == "loopback" {
			return true
		}
	}

	return false
}
