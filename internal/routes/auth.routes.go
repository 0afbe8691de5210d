package routes

import (
	"github.com/gin-gonic/gin"

	"pulse/internal/controllers"
)

// RegisterAuthRoutes registers token issuance and the WebSocket endpoint.
// issue runs before the token endpoint and must restrict who can mint;
// guard is the token check applied to /ws and may be nil.
func RegisterAuthRoutes(r *gin.Engine, ctl *controllers.Controller, issue []gin.HandlerFunc, guard gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		mint := append(append([]gin.HandlerFunc{}, issue...), ctl.HandleGetToken)
		auth.POST("/token", mint...)
		auth.GET("/status", ctl.HandleTokenStatus)
	}

	ws := []gin.HandlerFunc{ctl.HandleWebSocket}
	if guard != nil {
		ws = append([]gin.HandlerFunc{guard}, ws...)
	}
	r.GET("/ws", ws...)
}
