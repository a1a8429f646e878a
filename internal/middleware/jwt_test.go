package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fleet_tracker/internal/models"
	"fleet_tracker/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUsers map[string]*models.User

func (s stubUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestGenerateAndValidateToken(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, session.NewMemoryStore())

	tok, err := s.GenerateToken("user-1", "a@example.com")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := s.ValidateToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "a@example.com" || claims.ID == "" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	other := NewSessions("other-secret", time.Hour, session.NewMemoryStore())
	if _, err := other.ValidateToken(context.Background(), tok); err == nil {
		t.Fatal("token signed with a different secret must not validate")
	}
}

func TestRevokedTokenIsRejected(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, session.NewMemoryStore())
	tok, _ := s.GenerateToken("user-1", "a@example.com")
	claims, err := s.ValidateToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := s.Revoke(context.Background(), claims); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := s.ValidateToken(context.Background(), tok); !errors.Is(err, ErrRevokedToken) {
		t.Fatalf("expected ErrRevokedToken, got %v", err)
	}
}

func TestExpiredTokenIsRejected(t *testing.T) {
	s := NewSessions("test-secret", -time.Minute, session.NewMemoryStore())
	tok, _ := s.GenerateToken("user-1", "a@example.com")
	if _, err := s.ValidateToken(context.Background(), tok); err == nil {
		t.Fatal("expired token must not validate")
	}
}

func newAuthRouter(s *Sessions, users UserLookup) *gin.Engine {
	r := gin.New()
	r.GET("/me", s.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": CurrentUserID(c)})
	})
	r.GET("/admin", s.RequireAuth(), RequireCompanyAdmin(users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"company_id": CompanyID(c)})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, session.NewMemoryStore())
	r := newAuthRouter(s, stubUsers{})
	tok, _ := s.GenerateToken("user-1", "a@example.com")

	tests := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{"no token", "/me", "", http.StatusUnauthorized},
		{"garbage token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"bearer header", "/me", "Bearer " + tok, http.StatusOK},
		{"query token", "/me?token=" + tok, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d got %d (%s)", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestRequireCompanyAdmin(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, session.NewMemoryStore())
	company := "company-1"
	users := stubUsers{
		"admin":     {ID: "admin", Role: models.RoleCompanyAdmin, CompanyID: &company},
		"plain":     {ID: "plain", Role: models.RoleUser},
		"no-tenant": {ID: "no-tenant", Role: models.RoleCompanyAdmin},
	}
	r := newAuthRouter(s, users)

	tests := []struct {
		userID string
		want   int
	}{
		{"admin", http.StatusOK},
		{"plain", http.StatusForbidden},
		{"no-tenant", http.StatusForbidden},
		{"ghost", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			tok, _ := s.GenerateToken(tt.userID, tt.userID+"@example.com")
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+tok)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("expected %d got %d", tt.want, w.Code)
			}
		})
	}
}

type unavailableStore struct{}

func (unavailableStore) Revoke(context.Context, string, time.Duration) error {
	return errors.New("redis: connection refused")
}

func (unavailableStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func TestRequireAuthRevocationStoreDown(t *testing.T) {
	s := NewSessions("test-secret", time.Hour, unavailableStore{})
	tok, _ := s.GenerateToken("user-1", "a@example.com")

	if _, err := s.ValidateToken(context.Background(), tok); !errors.Is(err, ErrSessionCheck) {
		t.Fatalf("expected ErrSessionCheck, got %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	newAuthRouter(s, stubUsers{}).ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the store is down, got %d (%s)", w.Code, w.Body.String())
	}
}
