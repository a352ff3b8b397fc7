package utils

import (
	"testing"

	"atelier/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundtrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userID := uuid.New()
	token, err := GenerateAccessToken(userID, models.RoleCustomer)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, models.RoleCustomer, claims.Role)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
}

func TestRefreshTokenType(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateRefreshToken(uuid.New(), models.RoleStaff)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.Equal(t, models.RoleStaff, claims.Role)
}

func TestValidateJWTRejectsTampering(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateAccessToken(uuid.New(), models.RoleCustomer)
	require.NoError(t, err)

	_, err = ValidateJWT(token + "x")
	assert.Error(t, err)

	_, err = ValidateJWT("not-a-token")
	assert.Error(t, err)
}

func TestValidateJWTRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	token, err := GenerateAccessToken(uuid.New(), models.RoleCustomer)
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "second-secret")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}
