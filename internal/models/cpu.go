package models

// CPUReading is one instantaneous CPU sample
type CPUReading struct {
	UsagePercent float64 `json:"usage_percent"`
	CoreCount    int     `json:"core_count"`
	Name         string  `json:"name"`
}
