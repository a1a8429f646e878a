package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"

	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/realtime"
)

// RealtimeController upgrades live-map subscribers onto the change hub.
type RealtimeController struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewRealtimeController accepts upgrades from allowedOrigins, or from any
// origin when the list is empty.
func NewRealtimeController(hub *realtime.Hub, allowedOrigins []string) *RealtimeController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &RealtimeController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Subscribe streams the caller's company driver changes over a websocket.
// Browsers pass the session as ?token= since they cannot set headers here.
func (rc *RealtimeController) Subscribe(c *gin.Context) {
	companyID := middleware.CompanyID(c)

	conn, err := rc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("Failed to upgrade WebSocket connection.")
		return
	}
	rc.hub.ServeClient(conn, companyID)
}
