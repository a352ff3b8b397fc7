package middleware

import (
	"context"
	"net/http"
	"strings"

	"atelier/models"
	"atelier/utils"
)

type contextKey string

const claimsKey contextKey = "claims"

// Authenticate requires a valid Bearer access token and stores its claims
// in the request context.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFromRequest(r)
		if err != nil {
			utils.HandleError(w, http.StatusUnauthorized, err.Error())
			return
		}
		if claims.TokenType != utils.TokenTypeAccess {
			utils.HandleError(w, http.StatusUnauthorized, "Access token required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

// MaybeAuthenticate attaches claims when a valid token is present but lets
// anonymous requests through. Used by the view-tracking endpoint.
func MaybeAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims, err := claimsFromRequest(r); err == nil && claims.TokenType == utils.TokenTypeAccess {
			r = r.WithContext(withClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole gates a handler on a role capability, e.g.
// RequireRole((models.Role).CanManageCatalog, handler).
func RequireRole(allowed func(models.Role) bool, next http.Handler) http.Handler {
	return Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := UserFrom(r.Context())
		if !ok || !allowed(claims.Role) {
			utils.HandleError(w, http.StatusForbidden, "Permission denied")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// UserFrom returns the authenticated caller's claims, if any.
func UserFrom(ctx context.Context) (*utils.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*utils.Claims)
	return claims, ok
}

func withClaims(ctx context.Context, claims *utils.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func claimsFromRequest(r *http.Request) (*utils.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errMissingHeader
	}

	tokenParts := strings.Split(authHeader, " ")
	if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
		return nil, errBadHeader
	}

	claims, err := utils.ValidateJWT(tokenParts[1])
	if err != nil {
		return nil, errBadToken
	}
	return claims, nil
}

var (
	errMissingHeader = authError("Missing authorization header")
	errBadHeader     = authError("Invalid authorization header format")
	errBadToken      = authError("Invalid or expired token")
)

type authError string

func (e authError) Error() string { return string(e) }
