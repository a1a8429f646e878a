package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/session"
)

const (
	ctxClaims      = "claims"
	ctxUserID      = "user_id"
	ctxCurrentUser = "current_user"
)

var ErrRevokedToken = errors.New("token has been revoked")

// ErrSessionCheck means the revocation store could not be consulted.
var ErrSessionCheck = errors.New("session check failed")

// Claims is the session payload. ID (jti) identifies the token for sign-out.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Sessions issues and validates session tokens.
type Sessions struct {
	secret  []byte
	ttl     time.Duration
	revoked session.Store
}

func NewSessions(secret string, ttl time.Duration, revoked session.Store) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl, revoked: revoked}
}

func (s *Sessions) GenerateToken(userID, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Sessions) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCheck, err)
	}
	if revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke invalidates the token for the rest of its lifetime.
func (s *Sessions) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Until(claims.ExpiresAt.Time)
	return s.revoked.Revoke(ctx, claims.ID, ttl)
}

// tokenFromRequest reads the bearer token, falling back to ?token= for
// EventSource and WebSocket clients that cannot set headers.
func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return c.Query("token")
}

var errNoToken = errors.New("no session token")

// FromRequest validates the request's session token without aborting.
func (s *Sessions) FromRequest(c *gin.Context) (*Claims, error) {
	tokenString := tokenFromRequest(c)
	if tokenString == "" {
		return nil, errNoToken
	}
	return s.ValidateToken(c.Request.Context(), tokenString)
}

// RequireAuth ensures a valid, unrevoked session token is present
func (s *Sessions) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := s.FromRequest(c)
		if errors.Is(err, ErrSessionCheck) {
			logrus.WithError(err).Error("Could not verify session")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not verify session"})
			return
		}
		if err != nil {
			logrus.WithError(err).Debug("Rejected session token")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(ctxClaims, claims)
		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

// UserLookup loads the caller's user row.
type UserLookup interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RequireCompanyAdmin ensures the session belongs to a COMPANY_ADMIN with a
// company. Role and company are read from the store, not the token, because
// onboarding changes them after sign-in.
func RequireCompanyAdmin(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized or invalid admin user"})
				return
			}
			logrus.WithError(err).WithField("user_id", userID).Error("Failed to load admin user")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
			return
		}
		if !user.IsCompanyAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized or invalid admin user"})
			return
		}

		c.Set(ctxCurrentUser, user)
		c.Next()
	}
}

func CurrentClaims(c *gin.Context) *Claims {
	if v, ok := c.Get(ctxClaims); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return nil
}

func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// CurrentUser is set by RequireCompanyAdmin.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxCurrentUser); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// CompanyID is the tenant of the current admin, or "" outside admin routes.
func CompanyID(c *gin.Context) string {
	if user := CurrentUser(c); user != nil && user.CompanyID != nil {
		return *user.CompanyID
	}
	return ""
}
