package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/services"
)

type personalInfoInput struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

type businessInfoInput struct {
	BusinessName               string `json:"businessName"`
	BusinessPhoneNumber        string `json:"businessPhoneNumber"`
	BusinessAddress            string `json:"businessAddress"`
	BusinessRegistrationNumber string `json:"businessRegistrationNumber"`
}

// OnboardingController replies with {"message": ...} bodies.
type OnboardingController struct {
	onboarding *services.OnboardingService
}

func NewOnboardingController(onboarding *services.OnboardingService) *OnboardingController {
	return &OnboardingController{onboarding: onboarding}
}

func (oc *OnboardingController) PersonalInfo(c *gin.Context) {
	var input personalInfoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	userID := middleware.CurrentUserID(c)
	err := oc.onboarding.SavePersonalInfo(c.Request.Context(), userID, services.PersonalInfo{
		FirstName:   input.FirstName,
		LastName:    input.LastName,
		PhoneNumber: input.PhoneNumber,
		Address:     input.Address,
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Error saving personal info")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error saving personal info"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Personal info saved successfully"})
}

func (oc *OnboardingController) BusinessInfo(c *gin.Context) {
	var input businessInfoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	claims := middleware.CurrentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
		return
	}

	company, err := oc.onboarding.SaveBusinessInfo(c.Request.Context(), claims.UserID, claims.Email, services.BusinessInfo{
		Name:               input.BusinessName,
		PhoneNumber:        input.BusinessPhoneNumber,
		Address:            input.BusinessAddress,
		RegistrationNumber: input.BusinessRegistrationNumber,
	})
	if err != nil {
		logrus.WithError(err).WithField("user_id", claims.UserID).Error("Error saving business info")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error saving business info"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Business info saved successfully",
		"company_id": company.ID,
	})
}
