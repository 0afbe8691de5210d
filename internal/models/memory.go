package models

// MemoryReading is one instantaneous physical memory sample
type MemoryReading struct {
	TotalBytes uint64 `json:"total_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
}

// UsagePercent returns used/total as a percentage, 0 when total is unknown
func (m MemoryReading) UsagePercent() float64 {
	if m.TotalBytes == 0 {
		return 0
	}
	return float64(m.UsedBytes) / float64(m.TotalBytes) * 100
}
