package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleet_tracker/internal/services"
)

// respondError maps a service error onto a status and an {"error": ...} body.
// Anything unrecognised is a 500 carrying fallback; the cause is only logged.
func respondError(c *gin.Context, err error, fallback string) {
	status, msg := http.StatusInternalServerError, fallback
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, services.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, services.ErrForbidden):
		status, msg = http.StatusForbidden, "Unauthorized or invalid admin user"
	case errors.Is(err, services.ErrNotFound):
		status, msg = http.StatusNotFound, "Not found"
	case errors.Is(err, services.ErrDriverEmailTaken):
		status, msg = http.StatusConflict, "A driver with this email already exists"
	case errors.Is(err, services.ErrEmailTaken):
		status, msg = http.StatusConflict, "Email already in use"
	}

	if status == http.StatusInternalServerError {
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error(fallback)
	}
	c.JSON(status, gin.H{"error": msg})
}
