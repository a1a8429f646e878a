package routes

import (
	"io"
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/controllers"
	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/middleware"
)

// Deps is everything the router hands out to handlers.
type Deps struct {
	Sessions *middleware.Sessions
	Users    middleware.UserLookup

	Auth       *controllers.AuthController
	Onboarding *controllers.OnboardingController
	Drivers    *controllers.DriverController
	Cars       *controllers.CarController
	Locations  *controllers.LocationController
	Realtime   *controllers.RealtimeController

	LogWriter   io.Writer // request log; nil disables it
	CORSOrigins []string

	// UploadsDir is served at UploadsURL when blobs are kept on local disk.
	UploadsDir string
	UploadsURL string
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	if d.LogWriter != nil {
		r.Use(ginlog.SetLogger(
			ginlog.WithWriter(d.LogWriter),
			ginlog.WithSkipPath([]string{"/healthz", "/metrics"}),
		))
	}
	r.Use(gin.Recovery())
	r.Use(middleware.EnableCORS(d.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", metrics.Handler())
	if d.UploadsDir != "" {
		r.Static(d.UploadsURL, d.UploadsDir)
	}

	api := r.Group("/api")
	tenant := api.Group("", d.Sessions.RequireAuth(), middleware.RequireCompanyAdmin(d.Users))

	AuthRoutes(api, d)
	OnboardingRoutes(api, d)
	DriverRoutes(tenant, d)
	VehicleRoutes(tenant, d)
	WebSocketRoutes(r, d)

	return r
}
