package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/services"
)

type carInput struct {
	Name         string `json:"name" binding:"required"`
	PlateNumber  string `json:"plate_number"`
	Model        string `json:"model"`
	Year         *int   `json:"year"`
	EngineNumber string `json:"engine_number"`
	Color        string `json:"color"`
}

type carPictureInput struct {
	PictureURL string `json:"pictureUrl" binding:"required"`
}

type CarController struct {
	cars *services.CarService
}

func NewCarController(cars *services.CarService) *CarController {
	return &CarController{cars: cars}
}

// List returns the company's cars newest first, each with its driver's name.
func (cc *CarController) List(c *gin.Context) {
	cars, err := cc.cars.List(c.Request.Context(), middleware.CompanyID(c))
	if err != nil {
		respondError(c, err, "Failed to fetch cars")
		return
	}
	c.JSON(http.StatusOK, cars)
}

func (cc *CarController) ForDriver(c *gin.Context) {
	car, err := cc.cars.ForDriver(c.Request.Context(), middleware.CompanyID(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to fetch car")
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": car})
}

func (cc *CarController) UpsertForDriver(c *gin.Context) {
	var input carInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	car, err := cc.cars.UpsertForDriver(c.Request.Context(), middleware.CompanyID(c), c.Param("id"), services.CarInput{
		Name:         input.Name,
		PlateNumber:  input.PlateNumber,
		Model:        input.Model,
		Year:         input.Year,
		EngineNumber: input.EngineNumber,
		Color:        input.Color,
	})
	if err != nil {
		respondError(c, err, "Failed to save car")
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": car})
}

// CreateDetails adds a car for an existing driver from a multipart form.
func (cc *CarController) CreateDetails(c *gin.Context) {
	picture, closePicture, err := formUpload(c, "carPicture")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid carPicture: " + err.Error()})
		return
	}
	defer closePicture()

	car, err := cc.cars.CreateDetails(c.Request.Context(), middleware.CompanyID(c), services.CarDetails{
		DriverID:     c.PostForm("driverId"),
		Name:         c.PostForm("name"),
		Color:        c.PostForm("color"),
		EngineNumber: c.PostForm("engineNumber"),
		PlateNumber:  c.PostForm("plateNumber"),
	}, picture)
	if err != nil {
		respondError(c, err, "Failed to save car details")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"car": car})
}

func (cc *CarController) UpdatePicture(c *gin.Context) {
	var input carPictureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pictureUrl is required"})
		return
	}
	car, err := cc.cars.UpdatePicture(c.Request.Context(), middleware.CompanyID(c), c.Param("id"), input.PictureURL)
	if err != nil {
		respondError(c, err, "Failed to update car picture")
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": car})
}

// UploadImage stores a standalone image. Here the upload is the whole
// operation, so its failure is a 500.
func (cc *CarController) UploadImage(c *gin.Context) {
	file, closeFile, err := formUpload(c, "file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file: " + err.Error()})
		return
	}
	defer closeFile()
	if file == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	url, err := cc.cars.UploadImage(c.Request.Context(), middleware.CompanyID(c), file)
	if err != nil {
		respondError(c, err, "Failed to upload image")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
