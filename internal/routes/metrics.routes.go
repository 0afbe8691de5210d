package routes

import (
	"github.com/gin-gonic/gin"

	"pulse/internal/controllers"
)

func RegisterMonitorRoutes(api *gin.RouterGroup, ctl *controllers.Controller) {
	api.GET("/snapshot", ctl.GetSnapshot)
	api.GET("/dashboard", ctl.GetDashboard)
	api.GET("/alerts", ctl.GetAlerts)

	metrics := api.Group("/metrics")
	{
		metrics.GET("/cpu", ctl.GetCPU)
		metrics.GET("/memory", ctl.GetMemory)
		metrics.GET("/gpu", ctl.GetGPU)
		metrics.GET("/disk", ctl.GetDisk)
		metrics.GET("/network", ctl.GetNetwork)
	}

	history := api.Group("/history")
	{
		history.GET("", ctl.GetMetricHistory)
		history.GET("/all", ctl.GetAllHistory)
	}
}
