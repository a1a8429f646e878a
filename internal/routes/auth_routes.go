package routes

import (
	"github.com/gin-gonic/gin"
)

func AuthRoutes(api *gin.RouterGroup, d Deps) {
	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", d.Auth.SignUp)
		auth.POST("/sign-in", d.Auth.SignIn)
		auth.POST("/sign-out", d.Sessions.RequireAuth(), d.Auth.SignOut)
	}

	api.GET("/check-session", d.Auth.CheckSession)
	api.GET("/me", d.Sessions.RequireAuth(), d.Auth.Me)
}
