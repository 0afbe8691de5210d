package routes

import (
	"github.com/gin-gonic/gin"

	"pulse/internal/controllers"
)

func RegisterProcessRoutes(api *gin.RouterGroup, ctl *controllers.Controller) {
	processes := api.Group("/processes")
	{
		processes.GET("", ctl.GetTopProcesses)
		processes.GET("/status", ctl.GetProcessStatus)
	}
}
