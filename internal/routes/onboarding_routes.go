package routes

import (
	"github.com/gin-gonic/gin"
)

// OnboardingRoutes only need a session: onboarding is how a user becomes an admin.
func OnboardingRoutes(api *gin.RouterGroup, d Deps) {
	onboarding := api.Group("/onboarding")
	onboarding.Use(d.Sessions.RequireAuth())
	{
		onboarding.POST("/personal-info", d.Onboarding.PersonalInfo)
		onboarding.POST("/business-info", d.Onboarding.BusinessInfo)
	}
}
