package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/middleware"
)

func WebSocketRoutes(r *gin.Engine, d Deps) {
	wsRoutes := r.Group("/ws")
	wsRoutes.Use(d.Sessions.RequireAuth(), middleware.RequireCompanyAdmin(d.Users))
	{
		wsRoutes.GET("/drivers", d.Realtime.Subscribe)
	}
}
