package models

import (
	"sort"
	"time"
)

// SystemSnapshot is the aggregate view of all monitored state for one
// sampling tick. The sampling path owns and mutates a private instance;
// readers only ever receive published copies and must not modify them.
type SystemSnapshot struct {
	SystemName string    `json:"system_name"`
	CPUName    string    `json:"cpu_name"`
	CoreCount  int       `json:"core_count"`
	LastUpdate time.Time `json:"last_update"`
	TickCount  uint64    `json:"tick_count"`

	CPUUsagePercent float64          `json:"cpu_usage_percent"`
	CPUHistory      *Series[float64] `json:"cpu_history"`

	TotalRAMBytes      uint64           `json:"total_ram_bytes"`
	UsedRAMBytes       uint64           `json:"used_ram_bytes"`
	MemoryUsagePercent float64          `json:"memory_usage_percent"`
	MemoryHistory      *Series[float64] `json:"memory_history"`

	GPUUsagePercent float64          `json:"gpu_usage_percent"`
	GPUHistory      *Series[float64] `json:"gpu_history"`
	GPUName         string           `json:"gpu_name"`
	GPUMemoryUsed   uint64           `json:"gpu_memory_used"`
	GPUMemoryTotal  uint64           `json:"gpu_memory_total"`

	DiskUsagePercent     float64          `json:"disk_usage_percent"`
	DiskReadBytesPerSec  uint64           `json:"disk_read_bytes_per_sec"`
	DiskWriteBytesPerSec uint64           `json:"disk_write_bytes_per_sec"`
	DiskHistory          *Series[float64] `json:"disk_history"`
	PrimaryDiskName      string           `json:"primary_disk_name"`
	DiskSpacePath        string           `json:"disk_space_path,omitempty"`
	DiskSpaceUsedPercent float64          `json:"disk_space_used_percent"`

	NetworkUsagePercent     float64          `json:"network_usage_percent"`
	UploadBytesPerSec       uint64           `json:"upload_bytes_per_sec"`
	DownloadBytesPerSec     uint64           `json:"download_bytes_per_sec"`
	NetworkHistory          *Series[float64] `json:"network_history"`
	UploadHistory           *Series[uint64]  `json:"upload_history"`
	DownloadHistory         *Series[uint64]  `json:"download_history"`
	PrimaryNetworkInterface string           `json:"primary_network_interface"`

	// SampleTimes records when each history slot was filled
	SampleTimes *Series[time.Time] `json:"sample_times"`

	Processes      map[int32]ProcessInfo `json:"processes"`
	TotalProcesses int                   `json:"total_processes"`
	TotalThreads   int                   `json:"total_threads"`

	Network NetworkStats `json:"network"`

	AlertRules   []AlertRule   `json:"alert_rules"`
	ActiveAlerts []SystemAlert `json:"active_alerts"`
	TotalAlerts  uint64        `json:"total_alerts"`
}

// NewSystemSnapshot creates an empty snapshot whose histories each hold
// historySize samples.
func NewSystemSnapshot(historySize int) *SystemSnapshot {
	return &SystemSnapshot{
		SystemName:              "Unknown",
		CPUName:                 "Unknown CPU",
		GPUName:                 UnknownGPU,
		PrimaryDiskName:         "System Drive",
		PrimaryNetworkInterface: "Unknown",
		CPUHistory:              NewSeries[float64](historySize),
		MemoryHistory:           NewSeries[float64](historySize),
		GPUHistory:              NewSeries[float64](historySize),
		DiskHistory:             NewSeries[float64](historySize),
		NetworkHistory:          NewSeries[float64](historySize),
		UploadHistory:           NewSeries[uint64](historySize),
		DownloadHistory:         NewSeries[uint64](historySize),
		SampleTimes:             NewSeries[time.Time](historySize),
		Processes:               make(map[int32]ProcessInfo),
		Network:                 NetworkStats{PrimaryInterface: "Unknown"},
	}
}

// MetricValue returns the current value watched by an alert kind
func (s *SystemSnapshot) MetricValue(kind AlertKind) (float64, bool) {
	switch kind {
	case AlertCPUUsage:
		return s.CPUUsagePercent, true
	case AlertMemoryUsage:
		return s.MemoryUsagePercent, true
	case AlertDiskUsage:
		return s.DiskUsagePercent, true
	case AlertNetworkUsage:
		return s.NetworkUsagePercent, true
	case AlertProcessCount:
		return float64(s.TotalProcesses), true
	default:
		return 0, false
	}
}

// ProcessList returns the process table as a slice ordered by pid
func (s *SystemSnapshot) ProcessList() []ProcessInfo {
	list := make([]ProcessInfo, 0, len(s.Processes))
	for _, p := range s.Processes {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].PID < list[j].PID })
	return list
}

// AlertSummary summarises the active alerts
func (s *SystemSnapshot) AlertSummary() AlertSummary {
	return NewAlertSummary(s.ActiveAlerts, s.TotalAlerts)
}

// Clone returns a deep copy that shares no mutable state with s
func (s *SystemSnapshot) Clone() *SystemSnapshot {
	c := *s

	c.CPUHistory = s.CPUHistory.Clone()
	c.MemoryHistory = s.MemoryHistory.Clone()
	c.GPUHistory = s.GPUHistory.Clone()
	c.DiskHistory = s.DiskHistory.Clone()
	c.NetworkHistory = s.NetworkHistory.Clone()
	c.UploadHistory = s.UploadHistory.Clone()
	c.DownloadHistory = s.DownloadHistory.Clone()
	c.SampleTimes = s.SampleTimes.Clone()

	c.Processes = make(map[int32]ProcessInfo, len(s.Processes))
	for pid, p := range s.Processes {
		c.Processes[pid] = p
	}

	c.Network = s.Network.Clone()
	c.AlertRules = append([]AlertRule(nil), s.AlertRules...)
	c.ActiveAlerts = append([]SystemAlert(nil), s.ActiveAlerts...)

	return &c
}
