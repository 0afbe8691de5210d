package models

// UnknownGPU is reported when no adapter could be identified
const UnknownGPU = "Unknown GPU"

// GPUReading is one instantaneous GPU sample
type GPUReading struct {
	UsagePercent     float64 `json:"usage_percent"`
	Name             string  `json:"name"`
	MemoryUsedBytes  uint64  `json:"memory_used_bytes"`
	MemoryTotalBytes uint64  `json:"memory_total_bytes"`
}
