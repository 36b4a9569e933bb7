package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/mohit065/bankbase/internal/models"
)

func setupAuthConfig() {
	viper.Set("jwt.secret_key", "test-secret-key")
	viper.Set("jwt.expiry_hours", 1)
	viper.Set("argon2.salt_length", 16)
	viper.Set("argon2.time", 1)
	viper.Set("argon2.memory", 8*1024)
	viper.Set("argon2.threads", 2)
	viper.Set("argon2.key_length", 32)
}

func newAuthTestService(t *testing.T) (*AuthService, sqlmock.Sqlmock) {
	t.Helper()
	setupAuthConfig()

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewAuthService(db, nil), dbMock
}

func TestLogin(t *testing.T) {
	t.Run("successful login", func(t *testing.T) {
		service, dbMock := newAuthTestService(t)

		hash, err := hashPassword("password123")
		assert.NoError(t, err)

		dbMock.ExpectQuery(`SELECT id, email, password_hash, role FROM employees WHERE email = \$1`).
			WithArgs("teller@bankbase.io").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}).
				AddRow(2, "teller@bankbase.io", hash, models.RoleClerk))

		body := `{"email": "teller@bankbase.io", "password": "password123"}`
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		service.Login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var resp AuthResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "bearer", resp.TokenType)
		assert.NotEmpty(t, resp.AccessToken)

		token, err := jwt.Parse(resp.AccessToken, func(token *jwt.Token) (interface{}, error) {
			return []byte("test-secret-key"), nil
		})
		assert.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.Equal(t, float64(2), claims["id"])
		assert.Equal(t, models.RoleClerk, claims["role"])
		assert.NotEmpty(t, claims["jti"])
	})

	t.Run("email is lowercased before lookup", func(t *testing.T) {
		service, dbMock := newAuthTestService(t)

		hash, err := hashPassword("password123")
		assert.NoError(t, err)

		dbMock.ExpectQuery(`SELECT id, email, password_hash, role FROM employees WHERE email = \$1`).
			WithArgs("teller@bankbase.io").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}).
				AddRow(2, "teller@bankbase.io", hash, models.RoleClerk))

		body := `{"email": "Teller@BankBase.io", "password": "password123"}`
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		service.Login(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("unknown employee", func(t *testing.T) {
		service, dbMock := newAuthTestService(t)

		dbMock.ExpectQuery(`SELECT id, email, password_hash, role FROM employees WHERE email = \$1`).
			WithArgs("ghost@bankbase.io").
			WillReturnError(assert.AnError)

		body := `{"email": "ghost@bankbase.io", "password": "password123"}`
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		service.Login(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid credentials")
	})

	t.Run("wrong password", func(t *testing.T) {
		service, dbMock := newAuthTestService(t)

		hash, err := hashPassword("password123")
		assert.NoError(t, err)

		dbMock.ExpectQuery(`SELECT id, email, password_hash, role FROM employees WHERE email = \$1`).
			WithArgs("teller@bankbase.io").
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "role"}).
				AddRow(2, "teller@bankbase.io", hash, models.RoleClerk))

		body := `{"email": "teller@bankbase.io", "password": "wrongpass"}`
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		service.Login(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid credentials")
	})

	t.Run("validation failure", func(t *testing.T) {
		service, _ := newAuthTestService(t)

		body := `{"email": "not-an-email", "password": "short"}`
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		service.Login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Validation failed", resp.Error)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		service, _ := newAuthTestService(t)

		body := `{"email": "teller@bankbase.io", "password": "password123", "extra": true}`
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		service.Login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("multiple JSON objects are rejected", func(t *testing.T) {
		service, _ := newAuthTestService(t)

		body := `{"email": "teller@bankbase.io", "password": "password123"}{"again": true}`
		req := httptest.NewRequest("POST", "/auth/login", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		service.Login(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "single JSON object")
	})
}

func TestChangePassword(t *testing.T) {
	t.Run("successful change", func(t *testing.T) {
		service, dbMock := newAuthTestService(t)

		currentHash, err := hashPassword("oldpassword")
		assert.NoError(t, err)

		dbMock.ExpectQuery(`SELECT password_hash FROM employees WHERE id = \$1`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(currentHash))
		dbMock.ExpectExec(`UPDATE employees SET password_hash = \$1 WHERE id = \$2`).
			WithArgs(sqlmock.AnyArg(), int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		body := `{"current_password": "oldpassword", "new_password": "newpassword"}`
		req := httptest.NewRequest("POST", "/auth/change-password", bytes.NewBufferString(body))
		rr := doRequest(http.HandlerFunc(service.ChangePassword), req, clerkActor())

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Password updated successfully")
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("wrong current password", func(t *testing.T) {
		service, dbMock := newAuthTestService(t)

		currentHash, err := hashPassword("oldpassword")
		assert.NoError(t, err)

		dbMock.ExpectQuery(`SELECT password_hash FROM employees WHERE id = \$1`).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(currentHash))

		body := `{"current_password": "notthepassword", "new_password": "newpassword"}`
		req := httptest.NewRequest("POST", "/auth/change-password", bytes.NewBufferString(body))
		rr := doRequest(http.HandlerFunc(service.ChangePassword), req, clerkActor())

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Current password is incorrect")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		service, _ := newAuthTestService(t)

		body := `{"current_password": "oldpassword", "new_password": "newpassword"}`
		req := httptest.NewRequest("POST", "/auth/change-password", bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		service.ChangePassword(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestLogout(t *testing.T) {
	t.Run("logout without redis still succeeds", func(t *testing.T) {
		service, _ := newAuthTestService(t)

		token, err := generateJWT(2, models.RoleClerk)
		assert.NoError(t, err)

		req := httptest.NewRequest("POST", "/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		service.Logout(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "Logout successful")
	})

	t.Run("logout without token succeeds", func(t *testing.T) {
		service, _ := newAuthTestService(t)

		req := httptest.NewRequest("POST", "/auth/logout", nil)
		rr := httptest.NewRecorder()
		service.Logout(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestPasswordHashing(t *testing.T) {
	setupAuthConfig()

	t.Run("round trip", func(t *testing.T) {
		hash, err := hashPassword("s3cret-passphrase")
		assert.NoError(t, err)
		assert.True(t, verifyPassword("s3cret-passphrase", hash))
		assert.False(t, verifyPassword("wrong", hash))
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		first, err := hashPassword("samepassword")
		assert.NoError(t, err)
		second, err := hashPassword("samepassword")
		assert.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("malformed hash never verifies", func(t *testing.T) {
		assert.False(t, verifyPassword("whatever", "not-a-valid-hash"))
		assert.False(t, verifyPassword("whatever", "only$three$parts"))
	})
}
