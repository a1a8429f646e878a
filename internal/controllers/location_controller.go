package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleet_tracker/internal/livemap"
	"fleet_tracker/internal/metrics"
	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/services"
)

type locationInput struct {
	DriverID  string   `json:"driverId" binding:"required"`
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

type registerVehicleInput struct {
	DriverID  string   `json:"driverId" binding:"required"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type LocationController struct {
	locations *services.LocationService
	interval  time.Duration
}

const defaultStreamInterval = 2 * time.Second

// NewLocationController pushes a stream snapshot every interval; a
// non-positive interval means the default.
func NewLocationController(locations *services.LocationService, interval time.Duration) *LocationController {
	if interval <= 0 {
		interval = defaultStreamInterval
	}
	return &LocationController{locations: locations, interval: interval}
}

// List returns the company's drivers with their first car and live position.
func (lc *LocationController) List(c *gin.Context) {
	snapshot, err := lc.locations.Snapshot(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err, "Failed to fetch drivers")
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Stream sends the full snapshot as a server-sent event straight away and
// then on every tick, until the client goes away. A failed snapshot becomes
// an "error" event and the stream carries on.
func (lc *LocationController) Stream(c *gin.Context) {
	companyID := middleware.CompanyID(c)
	ctx := c.Request.Context()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	metrics.StreamClients.Inc()
	defer metrics.StreamClients.Dec()
	logrus.WithField("company_id", companyID).Debug("Driver updates stream opened")

	ticker := time.NewTicker(lc.interval)
	defer ticker.Stop()

	lc.pushSnapshot(ctx, c, companyID)
	for {
		select {
		case <-ctx.Done():
			logrus.WithField("company_id", companyID).Debug("Driver updates stream closed")
			return
		case <-ticker.C:
			lc.pushSnapshot(ctx, c, companyID)
		}
	}
}

func (lc *LocationController) pushSnapshot(ctx context.Context, c *gin.Context, companyID string) {
	snapshot, err := lc.locations.Snapshot(ctx, companyID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logrus.WithError(err).WithField("company_id", companyID).Error("Error fetching drivers for stream")
		c.SSEvent("error", gin.H{"message": "Error fetching drivers"})
	} else {
		c.Render(-1, sse.Event{Data: snapshot})
	}
	c.Writer.Flush()
}

// GeoJSON renders the company's live map as a FeatureCollection.
func (lc *LocationController) GeoJSON(c *gin.Context) {
	snapshot, err := lc.locations.Snapshot(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err, "Failed to fetch drivers")
		return
	}
	board := livemap.NewBoard()
	board.Load(snapshot)
	c.JSON(http.StatusOK, board.FeatureCollection())
}

func (lc *LocationController) UpdateDriverLocation(c *gin.Context) {
	var input locationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driverId, latitude and longitude are required"})
		return
	}

	synced, err := lc.locations.UpdateDriverLocation(c.Request.Context(), middleware.CompanyID(c),
		input.DriverID, *input.Latitude, *input.Longitude)
	if err != nil {
		respondError(c, err, "Failed to update driver location")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":     "Driver location updated",
		"fleetSynced": synced,
	})
}

// RegisterVehicle creates the driver's vehicle in the fleet service.
func (lc *LocationController) RegisterVehicle(c *gin.Context) {
	var input registerVehicleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "driverId is required"})
		return
	}

	err := lc.locations.RegisterVehicle(c.Request.Context(), middleware.CompanyID(c),
		input.DriverID, input.Name, input.Latitude, input.Longitude)
	if err != nil {
		respondError(c, err, "Failed to register vehicle")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Vehicle registered successfully"})
}

func (lc *LocationController) History(c *gin.Context) {
	entries, err := lc.locations.History(c.Request.Context(), middleware.CompanyID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch location history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
