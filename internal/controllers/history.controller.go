package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pulse/internal/models"
	"pulse/internal/services"
)

// GetMetricHistory returns historical data for a specific metric
// Query params: metric=cpu|memory|gpu|disk|network|upload|download,
// duration=30s|1m|5m (default: 5m)
func (ctl *Controller) GetMetricHistory(c *gin.Context) {
	metric := c.DefaultQuery("metric", "cpu")
	durationStr := c.DefaultQuery("duration", "5m")

	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration < 0 {
		badRequest(c, "invalid duration format")
		return
	}

	data, err := services.HistoryWindow(ctl.source.Snapshot(), metric, duration)
	if errors.Is(err, services.ErrUnknownMetric) {
		badRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metric":   metric,
		"duration": durationStr,
		"data":     data,
	})
}

// GetAllHistory returns all historical metrics in a window
// Query params: duration=30s|1m|5m (default: 5m)
func (ctl *Controller) GetAllHistory(c *gin.Context) {
	durationStr := c.DefaultQuery("duration", "5m")

	duration, err := time.ParseDuration(durationStr)
	if err != nil || duration < 0 {
		badRequest(c, "invalid duration format")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"duration": durationStr,
		"data":     services.AllHistory(ctl.source.Snapshot(), duration),
	})
}

// GetDashboard returns simplified data for the main dashboard: current
// values, top processes, alert summary and the last two minutes of history
func (ctl *Controller) GetDashboard(c *gin.Context) {
	snap := ctl.source.Snapshot()

	topProcesses := services.TopProcesses(snap, services.ProcessQuery{
		Sort:       services.SortByCPU,
		Descending: true,
		Limit:      5,
	})

	c.JSON(http.StatusOK, gin.H{
		"system": gin.H{
			"name":     snap.SystemName,
			"cpu_name": snap.CPUName,
			"gpu_name": snap.GPUName,
			"cores":    snap.CoreCount,
		},
		"current": gin.H{
			"cpu_percent":            snap.CPUUsagePercent,
			"memory_percent":         snap.MemoryUsagePercent,
			"gpu_percent":            snap.GPUUsagePercent,
			"disk_percent":           snap.DiskUsagePercent,
			"network_percent":        snap.NetworkUsagePercent,
			"upload_bytes_per_sec":   snap.UploadBytesPerSec,
			"download_bytes_per_sec": snap.DownloadBytesPerSec,
			"top_processes":          topProcesses,
			"total_processes":        snap.TotalProcesses,
		},
		"alerts":    snap.AlertSummary(),
		"history":   services.AllHistory(snap, 2*time.Minute),
		"timestamp": snap.LastUpdate,
	})
}

// GetAlerts returns active alerts most severe first, with the rule set
func (ctl *Controller) GetAlerts(c *gin.Context) {
	snap := ctl.source.Snapshot()
	rules := snap.AlertRules
	if len(rules) == 0 {
		rules = models.DefaultAlertRules()
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts":  models.SortBySeverity(snap.ActiveAlerts),
		"summary": snap.AlertSummary(),
		"rules":   rules,
	})
}
