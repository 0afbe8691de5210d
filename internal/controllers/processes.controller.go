package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pulse/internal/services"
)

// GetTopProcesses returns the process table ranked by a column
// Query params: sort=cpu|mem|pid|name|threads (default cpu), order=asc|desc
// (default desc), limit=N (default from config, 0 for all)
func (ctl *Controller) GetTopProcesses(c *gin.Context) {
	key, err := services.ParseProcessSortKey(c.DefaultQuery("sort", string(services.SortByCPU)))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	var descending bool
	switch c.DefaultQuery("order", "desc") {
	case "desc":
		descending = true
	case "asc":
	default:
		badRequest(c, "order must be asc or desc")
		return
	}

	limit := ctl.opts.TopLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
	}

	snap := ctl.source.Snapshot()
	processes := services.TopProcesses(snap, services.ProcessQuery{
		Sort:       key,
		Descending: descending,
		Limit:      limit,
	})

	c.JSON(http.StatusOK, gin.H{
		"processes":       processes,
		"total_processes": snap.TotalProcesses,
		"total_threads":   snap.TotalThreads,
		"last_updated":    snap.LastUpdate,
	})
}

// GetProcessStatus returns a simple process status summary (totals only)
func (ctl *Controller) GetProcessStatus(c *gin.Context) {
	snap := ctl.source.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"total_processes": snap.TotalProcesses,
		"total_threads":   snap.TotalThreads,
	})
}
