package models

import (
	"fmt"
	"sort"
	"time"
)

// AlertKind identifies the metric an AlertRule watches
type AlertKind int

const (
	AlertCPUUsage AlertKind = iota
	AlertMemoryUsage
	AlertDiskUsage
	AlertNetworkUsage
	AlertProcessCount
)

var alertKindNames = map[AlertKind]string{
	AlertCPUUsage:     "cpu_usage",
	AlertMemoryUsage:  "memory_usage",
	AlertDiskUsage:    "disk_usage",
	AlertNetworkUsage: "network_usage",
	AlertProcessCount: "process_count",
}

var alertKindTitles = map[AlertKind]string{
	AlertCPUUsage:     "High CPU Usage",
	AlertMemoryUsage:  "High Memory Usage",
	AlertDiskUsage:    "High Disk Usage",
	AlertNetworkUsage: "High Network Usage",
	AlertProcessCount: "Too Many Processes",
}

func (k AlertKind) String() string {
	if name, ok := alertKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("alert_kind(%d)", int(k))
}

// Title is the headline shown for an alert of this kind
func (k AlertKind) Title() string {
	if title, ok := alertKindTitles[k]; ok {
		return title
	}
	return "Unknown Alert"
}

// IsPercent reports whether the watched metric is a percentage
func (k AlertKind) IsPercent() bool {
	return k != AlertProcessCount
}

// MarshalText encodes the kind by name
func (k AlertKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name
func (k *AlertKind) UnmarshalText(text []byte) error {
	for kind, name := range alertKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown alert kind %q", string(text))
}

// AlertSeverity tiers an alert. Values match the numeric tiers of the
// alert list: 1 info, 2 warning, 3 critical.
type AlertSeverity int

const (
	// SeverityInfo is the lowest tier of the alert list. Threshold rules
	// never produce it; a raised alert is at least a warning.
	SeverityInfo     AlertSeverity = 1
	SeverityWarning  AlertSeverity = 2
	SeverityCritical AlertSeverity = 3
)

func (s AlertSeverity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// CriticalFactor scales a rule threshold into the critical tier boundary
const CriticalFactor = 1.5

// SeverityFor tiers a value that already exceeds threshold. Values strictly
// above threshold*CriticalFactor are critical.
func SeverityFor(value, threshold float64) AlertSeverity {
	if value > threshold*CriticalFactor {
		return SeverityCritical
	}
	return SeverityWarning
}

// AlertRule is a configured threshold on one metric kind
type AlertRule struct {
	Kind      AlertKind `json:"kind"`
	Threshold float64   `json:"threshold"`
	// DurationSeconds is how long the condition should persist before the
	// rule fires. Only honoured when the engine enforces durations.
	DurationSeconds uint32    `json:"duration_seconds"`
	Enabled         bool      `json:"enabled"`
	Message         string    `json:"message"`
	TriggeredCount  uint32    `json:"triggered_count"`
	LastTriggered   time.Time `json:"last_triggered"`
}

// Duration returns DurationSeconds as a time.Duration
func (r AlertRule) Duration() time.Duration {
	return time.Duration(r.DurationSeconds) * time.Second
}

// DefaultAlertRules returns the rule set seeded on first evaluation
func DefaultAlertRules() []AlertRule {
	return []AlertRule{
		{Kind: AlertCPUUsage, Threshold: 80, DurationSeconds: 30, Enabled: true, Message: "CPU usage is high"},
		{Kind: AlertMemoryUsage, Threshold: 85, DurationSeconds: 60, Enabled: true, Message: "Memory usage is high"},
		{Kind: AlertDiskUsage, Threshold: 90, DurationSeconds: 60, Enabled: true, Message: "Disk usage is high"},
		{Kind: AlertNetworkUsage, Threshold: 75, DurationSeconds: 45, Enabled: true, Message: "Network usage is high"},
	}
}

// SystemAlert is an alert asserted because its rule's condition holds
type SystemAlert struct {
	Kind         AlertKind     `json:"kind"`
	Title        string        `json:"title"`
	Message      string        `json:"message"`
	CurrentValue float64       `json:"current_value"`
	Threshold    float64       `json:"threshold"`
	Timestamp    time.Time     `json:"timestamp"`
	Active       bool          `json:"active"`
	Severity     AlertSeverity `json:"severity"`
}

// IsCritical returns true if this alert is at critical level
func (a SystemAlert) IsCritical() bool {
	return a.Severity >= SeverityCritical
}

// SortBySeverity orders alerts most severe first, oldest first within a tier
func SortBySeverity(alerts []SystemAlert) []SystemAlert {
	sorted := make([]SystemAlert, len(alerts))
	copy(sorted, alerts)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Severity != sorted[j].Severity {
			return sorted[i].Severity > sorted[j].Severity
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// SystemStatus is the overall health derived from active alerts
type SystemStatus string

const (
	StatusNormal   SystemStatus = "normal"
	StatusWarning  SystemStatus = "warning"
	StatusCritical SystemStatus = "critical"
)

// AlertSummary provides aggregated alert statistics
type AlertSummary struct {
	ActiveAlerts  int          `json:"active_alerts"`
	WarningCount  int          `json:"warning_count"`
	CriticalCount int          `json:"critical_count"`
	TotalAlerts   uint64       `json:"total_alerts"`
	Status        SystemStatus `json:"status"`
}

// NewAlertSummary summarises the active alerts of a snapshot
func NewAlertSummary(active []SystemAlert, lifetimeTotal uint64) AlertSummary {
	summary := AlertSummary{
		ActiveAlerts: len(active),
		TotalAlerts:  lifetimeTotal,
		Status:       StatusNormal,
	}
	for _, alert := range active {
		switch {
		case alert.IsCritical():
			summary.CriticalCount++
		case alert.Severity >= SeverityWarning:
			summary.WarningCount++
		}
	}
	switch {
	case summary.CriticalCount > 0:
		summary.Status = StatusCritical
	case summary.WarningCount > 0:
		summary.Status = StatusWarning
	}
	return summary
}
