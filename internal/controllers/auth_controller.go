package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleet_tracker/internal/middleware"
	"fleet_tracker/internal/services"
)

type signupInput struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type signinInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthController struct {
	accounts *services.AccountService
	sessions *middleware.Sessions
}

func NewAuthController(accounts *services.AccountService, sessions *middleware.Sessions) *AuthController {
	return &AuthController{accounts: accounts, sessions: sessions}
}

func (ac *AuthController) SignUp(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.accounts.SignUp(c.Request.Context(), services.SignUpInput{
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
	})
	if err != nil {
		respondError(c, err, "Failed to create user")
		return
	}

	token, err := ac.sessions.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondError(c, err, "Could not generate token")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	})
}

func (ac *AuthController) SignIn(c *gin.Context) {
	var input signinInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ac.accounts.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		respondError(c, err, "Failed to sign in")
		return
	}

	token, err := ac.sessions.GenerateToken(user.ID, user.Email)
	if err != nil {
		respondError(c, err, "Could not generate token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// SignOut revokes the presented token for the rest of its lifetime.
func (ac *AuthController) SignOut(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := ac.sessions.Revoke(c.Request.Context(), claims); err != nil {
		respondError(c, err, "Failed to sign out")
		return
	}
	logrus.WithField("user_id", claims.UserID).Info("User signed out")
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

func (ac *AuthController) CheckSession(c *gin.Context) {
	_, err := ac.sessions.FromRequest(c)
	if errors.Is(err, middleware.ErrSessionCheck) {
		respondError(c, err, "Could not verify session")
		return
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "Authenticated"})
}

// Me returns the caller's user row, including the onboarding stage.
func (ac *AuthController) Me(c *gin.Context) {
	user, err := ac.accounts.GetUser(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err, "Failed to load user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
