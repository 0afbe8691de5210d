package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pulse/internal/services"
)

// GetSnapshot returns the full snapshot of the last completed tick
func (ctl *Controller) GetSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.source.Snapshot())
}

func (ctl *Controller) GetCPU(c *gin.Context) {
	snap := ctl.source.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"usage_percent": snap.CPUUsagePercent,
		"core_count":    snap.CoreCount,
		"name":          snap.CPUName,
		"timestamp":     snap.LastUpdate,
	})
}

func (ctl *Controller) GetMemory(c *gin.Context) {
	snap := ctl.source.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"total_bytes":   snap.TotalRAMBytes,
		"used_bytes":    snap.UsedRAMBytes,
		"total_gb":      float64(snap.TotalRAMBytes) / services.GB,
		"used_gb":       float64(snap.UsedRAMBytes) / services.GB,
		"usage_percent": snap.MemoryUsagePercent,
		"timestamp":     snap.LastUpdate,
	})
}

func (ctl *Controller) GetGPU(c *gin.Context) {
	snap := ctl.source.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"usage_percent":      snap.GPUUsagePercent,
		"name":               snap.GPUName,
		"memory_used_bytes":  snap.GPUMemoryUsed,
		"memory_total_bytes": snap.GPUMemoryTotal,
		"timestamp":          snap.LastUpdate,
	})
}

func (ctl *Controller) GetDisk(c *gin.Context) {
	snap := ctl.source.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"usage_percent":       snap.DiskUsagePercent,
		"read_bytes_per_sec":  snap.DiskReadBytesPerSec,
		"write_bytes_per_sec": snap.DiskWriteBytesPerSec,
		"primary_disk_name":   snap.PrimaryDiskName,
		"space_path":          snap.DiskSpacePath,
		"space_used_percent":  snap.DiskSpaceUsedPercent,
		"timestamp":           snap.LastUpdate,
	})
}

func (ctl *Controller) GetNetwork(c *gin.Context) {
	snap := ctl.source.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"usage_percent":          snap.NetworkUsagePercent,
		"upload_bytes_per_sec":   snap.UploadBytesPerSec,
		"download_bytes_per_sec": snap.DownloadBytesPerSec,
		"primary_interface":      snap.PrimaryNetworkInterface,
		"stats":                  snap.Network,
		"timestamp":              snap.LastUpdate,
	})
}
