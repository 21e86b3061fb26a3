// Package auth verifies session tokens minted by the external identity
// provider. Only verification lives here — sign-in/up flows belong to the
// provider, not this service.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the authenticated user identity attached to a request.
type Claims struct {
	UserID string
	Email  string
}

type ctxKey struct{}

// FromContext returns the claims the middleware attached, if any.
func FromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(Claims)
	return c, ok
}

// Middleware rejects requests without a valid HS256 bearer token and
// attaches the verified claims to the request context.
func Middleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				unauthorized(w, "missing token")
				return
			}
			tokenString = strings.TrimPrefix(tokenString, "Bearer ")

			token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				unauthorized(w, "invalid token")
				return
			}

			mapClaims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				unauthorized(w, "invalid token claims")
				return
			}
			sub, _ := mapClaims["sub"].(string)
			if sub == "" {
				unauthorized(w, "token has no subject")
				return
			}
			email, _ := mapClaims["email"].(string)

			ctx := context.WithValue(r.Context(), ctxKey{}, Claims{UserID: sub, Email: email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// SignToken mints an HS256 token for the given claims. Used by tests and
// local development; production tokens come from the identity provider.
func SignToken(secret []byte, c Claims, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   c.UserID,
		"email": c.Email,
		"exp":   time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}
