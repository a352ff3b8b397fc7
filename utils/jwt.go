package utils

import (
	"errors"
	"time"

	"atelier/config"
	"atelier/models"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

type Claims struct {
	UserID    uuid.UUID   `json:"userId"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"tokenType"`
	jwt.StandardClaims
}

func secret() []byte {
	return []byte(config.GetEnv("JWT_SECRET", ""))
}

func GenerateAccessToken(userID uuid.UUID, role models.Role) (string, error) {
	return generateToken(userID, role, TokenTypeAccess, accessTokenTTL)
}

func GenerateRefreshToken(userID uuid.UUID, role models.Role) (string, error) {
	return generateToken(userID, role, TokenTypeRefresh, refreshTokenTTL)
}

func generateToken(userID uuid.UUID, role models.Role, tokenType string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(ttl).Unix(),
			IssuedAt:  time.Now().Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

func ValidateJWT(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret(), nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	return claims, nil
}
