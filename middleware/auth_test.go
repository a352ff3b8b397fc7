package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier/models"
	"atelier/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func claimsEcho(t *testing.T, captured **utils.Claims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := UserFrom(r.Context()); ok {
			*captured = claims
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := uuid.New()
	token, err := utils.GenerateAccessToken(userID, models.RoleCustomer)
	require.NoError(t, err)

	var captured *utils.Claims
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	Authenticate(claimsEcho(t, &captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, userID, captured.UserID)
	assert.Equal(t, models.RoleCustomer, captured.Role)
}

func TestAuthenticateRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	refresh, err := utils.GenerateRefreshToken(uuid.New(), models.RoleCustomer)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "Bearer"},
		{"wrong scheme", "Basic abc"},
		{"garbage token", "Bearer garbage"},
		{"refresh token on access route", "Bearer " + refresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured *utils.Claims
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			Authenticate(claimsEcho(t, &captured)).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, captured)
		})
	}
}

func TestMaybeAuthenticateAllowsAnonymous(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	var captured *utils.Claims
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	MaybeAuthenticate(claimsEcho(t, &captured)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, captured)
}

func TestRequireRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	staffToken, err := utils.GenerateAccessToken(uuid.New(), models.RoleStaff)
	require.NoError(t, err)
	customerToken, err := utils.GenerateAccessToken(uuid.New(), models.RoleCustomer)
	require.NoError(t, err)

	handler := RequireRole((models.Role).CanViewAnalytics, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+customerToken)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
