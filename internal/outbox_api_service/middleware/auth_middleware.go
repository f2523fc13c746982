package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ContextKey is a custom type for context keys to avoid collisions.
type ContextKey string

const (
	AuthenticatedUserContextKey = ContextKey("authenticatedUser")
)

// AuthenticatedUser holds information about the authenticated caller. Service
// callers (ApiKey scheme) have no account uid of their own and must name the
// sender explicitly in the request payload.
type AuthenticatedUser struct {
	UID       string
	IsService bool
}

// AuthMiddleware authenticates requests. Two schemes share the Authorization
// header: "Bearer <jwt>" for account holders (HS256, sub claim is the account uid)
// and "ApiKey <key>" for trusted services, checked against a bcrypt hash from
// configuration.
func AuthMiddleware(jwtAccessSecret, serviceAPIKeyHash string, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.WarnContext(r.Context(), "Authorization header missing")
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 {
				logger.WarnContext(r.Context(), "Invalid Authorization header format")
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			var authUser AuthenticatedUser
			switch parts[0] {
			case "Bearer":
				uid, err := validateAccessToken(parts[1], jwtAccessSecret)
				if err != nil {
					logger.WarnContext(r.Context(), "Token validation failed", "error", err)
					http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
					return
				}
				authUser = AuthenticatedUser{UID: uid}
			case "ApiKey":
				if serviceAPIKeyHash == "" {
					logger.WarnContext(r.Context(), "ApiKey scheme used but no service API key is configured")
					http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
					return
				}
				if err := bcrypt.CompareHashAndPassword([]byte(serviceAPIKeyHash), []byte(parts[1])); err != nil {
					logger.WarnContext(r.Context(), "Service API key mismatch")
					http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
					return
				}
				authUser = AuthenticatedUser{IsService: true}
			default:
				logger.WarnContext(r.Context(), "Unsupported Authorization scheme", "scheme", parts[0])
				http.Error(w, "Unsupported Authorization scheme", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), AuthenticatedUserContextKey, authUser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateAccessToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("token missing sub claim")
	}
	return sub, nil
}
