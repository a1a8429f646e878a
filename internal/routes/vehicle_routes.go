package routes

import (
	"github.com/gin-gonic/gin"
)

// VehicleRoutes are mounted on the company-admin group.
func VehicleRoutes(tenant *gin.RouterGroup, d Deps) {
	tenant.GET("/cars", d.Cars.List)
	tenant.PATCH("/cars/:id/picture", d.Cars.UpdatePicture)
	tenant.POST("/car-details", d.Cars.CreateDetails)
	tenant.POST("/upload-image", d.Cars.UploadImage)
	tenant.POST("/register-vehicle", d.Locations.RegisterVehicle)
}
