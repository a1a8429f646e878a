package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/services"
)

type DriverController struct {
	registration *services.RegistrationService
}

func NewDriverController(registration *services.RegistrationService) *DriverController {
	return &DriverController{registration: registration}
}

// Register creates a driver and its car from a multipart form. carPicture is
// optional; a failed upload still registers the driver.
func (dc *DriverController) Register(c *gin.Context) {
	lat, err := optionalFloat(c, "latitude")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lng, err := optionalFloat(c, "longitude")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	year, err := optionalInt(c, "carYear")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if c.PostForm("email") == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	picture, closePicture, err := formUpload(c, "carPicture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid carPicture: " + err.Error()})
		return
	}
	defer closePicture()

	driver := services.DriverInput{
		Name:                  c.PostForm("name"),
		Email:                 c.PostForm("email"),
		PhoneNumber:           c.PostForm("phoneNumber"),
		Address:               c.PostForm("address"),
		DateOfBirth:           c.PostForm("dateOfBirth"),
		NextOfKinName:         c.PostForm("nextOfKinName"),
		NextOfKinPhoneNumber:  c.PostForm("nextOfKinPhoneNumber"),
		NextOfKinRelationship: c.PostForm("nextOfKinRelationship"),
		NextOfKinAddress:      c.PostForm("nextOfKinAddress"),
		NextOfKinWorkAddress:  c.PostForm("nextOfKinWorkAddress"),
		LicenseNumber:         c.PostForm("licenseNumber"),
		Latitude:              lat,
		Longitude:             lng,
	}
	car := services.CarInput{
		Name:         c.PostForm("carName"),
		Model:        c.PostForm("carModel"),
		Color:        c.PostForm("carColor"),
		EngineNumber: c.PostForm("engineNumber"),
		PlateNumber:  c.PostForm("plateNumber"),
		Year:         year,
	}

	created, createdCar, err := dc.registration.Register(c.Request.Context(), middleware.CurrentUser(c), driver, car, picture)
	if err != nil {
		respondError(c, err, "Failed to create driver and car")
		return
	}

	logrus.WithFields(logrus.Fields{
		"driver_id":  created.ID,
		"car_id":     createdCar.ID,
		"company_id": created.CompanyID,
	}).Info("Driver registered")
	c.JSON(http.StatusCreated, gin.H{
		"driver": created,
		"car":    createdCar,
	})
}
