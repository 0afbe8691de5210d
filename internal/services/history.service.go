package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pulse/internal/models"
)

// ErrUnknownMetric is returned for a history metric name that has no series
var ErrUnknownMetric = errors.New("unknown metric")

// HistoryMetrics lists the metric names accepted by HistoryWindow
var HistoryMetrics = []string{"cpu", "memory", "gpu", "disk", "network", "upload", "download"}

// HistoryWindow returns the samples of one metric taken within window of
// the snapshot's last update. A window <= 0 returns every retained sample.
// metric: "cpu", "memory", "gpu", "disk", "network", "upload", "download"
func HistoryWindow(snapshot *models.SystemSnapshot, metric string, window time.Duration) ([]models.MetricPoint, error) {
	value, ok := seriesReader(snapshot, metric)
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownMetric, metric, strings.Join(HistoryMetrics, ", "))
	}
	return collectPoints(snapshot, window, value), nil
}

// AllHistory returns every metric history within window
func AllHistory(snapshot *models.SystemSnapshot, window time.Duration) models.HistoricalDataWindow {
	points := func(metric string) []models.MetricPoint {
		value, _ := seriesReader(snapshot, metric)
		return collectPoints(snapshot, window, value)
	}

	return models.HistoricalDataWindow{
		CPU:      points("cpu"),
		Memory:   points("memory"),
		GPU:      points("gpu"),
		Disk:     points("disk"),
		Network:  points("network"),
		Upload:   points("upload"),
		Download: points("download"),
	}
}

// seriesReader returns an accessor for the i-th oldest sample of a metric
func seriesReader(snapshot *models.SystemSnapshot, metric string) (func(int) float64, bool) {
	floatSeries := func(s *models.Series[float64]) func(int) float64 {
		return s.Get
	}
	byteSeries := func(s *models.Series[uint64]) func(int) float64 {
		return func(i int) float64 { return float64(s.Get(i)) }
	}

	switch metric {
	case "cpu":
		return floatSeries(snapshot.CPUHistory), true
	case "memory":
		return floatSeries(snapshot.MemoryHistory), true
	case "gpu":
		return floatSeries(snapshot.GPUHistory), true
	case "disk":
		return floatSeries(snapshot.DiskHistory), true
	case "network":
		return floatSeries(snapshot.NetworkHistory), true
	case "upload":
		return byteSeries(snapshot.UploadHistory), true
	case "download":
		return byteSeries(snapshot.DownloadHistory), true
	default:
		return nil, false
	}
}

func collectPoints(snapshot *models.SystemSnapshot, window time.Duration, value func(int) float64) []models.MetricPoint {
	times := snapshot.SampleTimes
	points := []models.MetricPoint{}

	var cutoff time.Time
	if window > 0 {
		cutoff = snapshot.LastUpdate.Add(-window)
	}

	for i := 0; i < times.Len(); i++ {
		ts := times.Get(i)
		if window > 0 && !ts.After(cutoff) {
			continue
		}
		points = append(points, models.MetricPoint{Timestamp: ts, Value: value(i)})
	}
	return points
}
