package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"notesync/pkg/logger"
)

type contextKey string

const UserIDKey contextKey = "userID"

// AuthMiddleware validates the session token and stores the account id in
// the request context. Tokens arrive as a query parameter for websocket
// requests, because the browser's WebSocket API doesn't support custom
// headers, or as a bearer header otherwise.
func AuthMiddleware(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.URL.Query().Get("token")
			if tokenString == "" {
				authHeader := r.Header.Get("Authorization")
				tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			}
			if tokenString == "" {
				http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				logger.Sugar.Infof("Invalid token: %v", err)
				http.Error(w, "Unauthorized: Invalid or expired token", http.StatusUnauthorized)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				http.Error(w, "Unauthorized: Could not parse token claims", http.StatusUnauthorized)
				return
			}
			userID, ok := claims["sub"].(string)
			if !ok || userID == "" {
				http.Error(w, "Unauthorized: User ID (sub) claim is missing or invalid", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
