package models

// DiskReading is one disk I/O sample for the primary disk
type DiskReading struct {
	// UsagePercent is the share of wall time the device was busy
	UsagePercent     float64 `json:"usage_percent"`
	ReadBytesPerSec  uint64  `json:"read_bytes_per_sec"`
	WriteBytesPerSec uint64  `json:"write_bytes_per_sec"`
	PrimaryDiskName  string  `json:"primary_disk_name"`
	SpacePath        string  `json:"space_path,omitempty"`
	SpaceUsedPercent float64 `json:"space_used_percent"`
	SpaceTotalBytes  uint64  `json:"space_total_bytes"`
	SpaceUsedBytes   uint64  `json:"space_used_bytes"`
}
