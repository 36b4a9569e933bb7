package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/mohit065/bankbase/internal/middleware"
	"github.com/mohit065/bankbase/internal/models"
)

type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"teller@bankbase.io"` // Employee email
	Password string `json:"password" validate:"required,min=6" example:"password123"`     // Employee password
}

// ChangePasswordRequest represents the password change payload
// @Description Password change request structure
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`       // Current password
	NewPassword     string `json:"new_password" validate:"required,min=6"`     // New password
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	TokenType   string `json:"token_type" example:"bearer"`                                    // Token type
}

func NewAuthService(db *sql.DB, redisClient *redis.Client) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// Login handles employee authentication
// @Summary Login employee
// @Description Authenticate an employee with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Invalid credentials"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req LoginRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Login failed - invalid request: %v", err)
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[AUTH] Multiple JSON objects detected")
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var employee models.Employee
	err := s.db.QueryRow("SELECT id, email, password_hash, role FROM employees WHERE email = $1",
		strings.ToLower(req.Email)).Scan(&employee.ID, &employee.Email, &employee.PasswordHash, &employee.Role)
	if err != nil {
		log.Printf("[AUTH] Employee not found for email: %s", req.Email)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !verifyPassword(req.Password, employee.PasswordHash) {
		log.Printf("[AUTH] Invalid password for employee: %s", req.Email)
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, err := generateJWT(employee.ID, employee.Role)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for employee %d: %v", employee.ID, err)
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Login successful for employee %d", employee.ID)
	SendJSON(w, http.StatusOK, AuthResponse{AccessToken: token, TokenType: "bearer"})
}

// ChangePassword handles a logged-in employee changing their own password
// @Summary Change password
// @Description Change the authenticated employee's password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ChangePasswordRequest true "Password change request"
// @Success 200 {object} map[string]string "Password updated"
// @Failure 400 {string} string "Current password is incorrect"
// @Failure 401 {string} string "Unauthorized"
// @Router /auth/change-password [post]
func (s *AuthService) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var currentHash string
	err := s.db.QueryRow("SELECT password_hash FROM employees WHERE id = $1", actor.ID).Scan(&currentHash)
	if err != nil {
		log.Printf("[AUTH] Failed to load employee %d: %v", actor.ID, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	if !verifyPassword(req.CurrentPassword, currentHash) {
		log.Printf("[AUTH] Wrong current password for employee %d", actor.ID)
		SendErrorResponse(w, "Current password is incorrect", http.StatusBadRequest, nil)
		return
	}

	newHash, err := hashPassword(req.NewPassword)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for employee %d: %v", actor.ID, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	if _, err := s.db.Exec("UPDATE employees SET password_hash = $1 WHERE id = $2", newHash, actor.ID); err != nil {
		log.Printf("[AUTH] Password update failed for employee %d: %v", actor.ID, err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Password updated for employee %d", actor.ID)
	SendJSON(w, http.StatusOK, map[string]string{"detail": "Password updated successfully"})
}

// Logout handles employee logout
// @Summary Logout employee
// @Description Revoke the presented token by blacklisting its jti
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // Remove "Bearer " prefix

		if s.redis != nil {
			if jti, exp, err := tokenIDAndExpiry(token); err == nil {
				ctx := context.Background()
				key := fmt.Sprintf("blacklist:%s", jti)
				ttl := time.Until(exp)
				if ttl > 0 {
					if err := s.redis.Set(ctx, key, "1", ttl).Err(); err != nil {
						log.Printf("[AUTH] Failed to blacklist token: %v", err)
					}
				}
			}
		}
	}

	SendJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func generateJWT(employeeID int64, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":   employeeID,
		"role": role,
		"jti":  uuid.New().String(),
		"exp":  time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func tokenIDAndExpiry(tokenString string) (string, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(viper.GetString("jwt.secret_key")), nil
	})
	if err != nil || !token.Valid {
		return "", time.Time{}, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, fmt.Errorf("unexpected claims type")
	}

	jti, _ := claims["jti"].(string)
	exp, _ := claims["exp"].(float64)
	return jti, time.Unix(int64(exp), 0), nil
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}
