package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"

	"github.com/mohit065/bankbase/internal/ledger"
	"github.com/mohit065/bankbase/internal/models"
)

type contextKey string

const (
	employeeIDKey   contextKey = "employeeID"
	employeeRoleKey contextKey = "employeeRole"
)

var blacklistClient *redis.Client

// InitAuthMiddleware wires the Redis client used for the logout token
// blacklist. A nil client disables blacklist checks.
func InitAuthMiddleware(redisClient *redis.Client) {
	blacklistClient = redisClient
}

// AuthMiddleware validates the bearer token and puts the employee's id and
// role into the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		actor, jti, err := validateToken(parts[1])
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if blacklistClient != nil && jti != "" {
			key := fmt.Sprintf("blacklist:%s", jti)
			if exists, err := blacklistClient.Exists(r.Context(), key).Result(); err == nil && exists > 0 {
				http.Error(w, "Token revoked", http.StatusUnauthorized)
				return
			}
		}

		ctx := context.WithValue(r.Context(), employeeIDKey, actor.ID)
		ctx = context.WithValue(ctx, employeeRoleKey, actor.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin gates a route group on the admin role. It must sit behind
// AuthMiddleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(employeeRoleKey).(string)
		if !ok || role != models.RoleAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ActorFromContext returns the authenticated employee for the request.
func ActorFromContext(ctx context.Context) (ledger.Actor, bool) {
	id, okID := ctx.Value(employeeIDKey).(int64)
	role, okRole := ctx.Value(employeeRoleKey).(string)
	if !okID || !okRole {
		return ledger.Actor{}, false
	}
	return ledger.Actor{ID: id, Role: role}, true
}

// ContextWithActor is used by handler tests to simulate an authenticated
// request without minting a token.
func ContextWithActor(ctx context.Context, actor ledger.Actor) context.Context {
	ctx = context.WithValue(ctx, employeeIDKey, actor.ID)
	return context.WithValue(ctx, employeeRoleKey, actor.Role)
}

func validateToken(tokenString string) (ledger.Actor, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return ledger.Actor{}, "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ledger.Actor{}, "", fmt.Errorf("unexpected claims type")
	}

	id, ok := claims["id"].(float64)
	if !ok {
		return ledger.Actor{}, "", fmt.Errorf("missing id claim")
	}
	role, ok := claims["role"].(string)
	if !ok {
		return ledger.Actor{}, "", fmt.Errorf("missing role claim")
	}
	jti, _ := claims["jti"].(string)

	return ledger.Actor{ID: int64(id), Role: role}, jti, nil
}
