package routes

import (
	"github.com/gin-gonic/gin"
)

// DriverRoutes are mounted on the company-admin group.
func DriverRoutes(tenant *gin.RouterGroup, d Deps) {
	drivers := tenant.Group("/drivers")
	{
		drivers.POST("", d.Drivers.Register)
		drivers.GET("", d.Locations.List)
		drivers.GET("/geojson", d.Locations.GeoJSON)
		drivers.GET("/:id/car", d.Cars.ForDriver)
		drivers.POST("/:id/car", d.Cars.UpsertForDriver)
		drivers.GET("/:id/history", d.Locations.History)
	}

	tenant.GET("/driver-updates", d.Locations.Stream)
	tenant.POST("/update-driver-location", d.Locations.UpdateDriverLocation)
}
