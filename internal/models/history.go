package models

import "time"

// MetricPoint is one timestamped sample of a metric history
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// HistoricalDataWindow holds the recent history of every metric
type HistoricalDataWindow struct {
	CPU      []MetricPoint `json:"cpu"`
	Memory   []MetricPoint `json:"memory"`
	GPU      []MetricPoint `json:"gpu"`
	Disk     []MetricPoint `json:"disk"`
	Network  []MetricPoint `json:"network"`
	Upload   []MetricPoint `json:"upload"`
	Download []MetricPoint `json:"download"`
}
