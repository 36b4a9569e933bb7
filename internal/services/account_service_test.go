package services

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"

	"github.com/mohit065/bankbase/internal/audit"
	"github.com/mohit065/bankbase/internal/models"
)

func newAccountTestService(t *testing.T, redisClient *redis.Client) (*AccountService, sqlmock.Sqlmock) {
	t.Helper()

	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewAccountService(db, redisClient, audit.NewLogger()), dbMock
}

func accountRouter(service *AccountService) *chi.Mux {
	router := chi.NewRouter()
	router.Post("/accounts", service.CreateAccount)
	router.Get("/accounts", service.ListAccounts)
	router.Get("/accounts/{id}", service.GetAccount)
	router.Put("/accounts/{id}", service.UpdateAccount)
	router.Patch("/accounts/{id}/toggle-active", service.ToggleActive)
	router.Delete("/accounts/{id}", service.DeleteAccount)
	router.Post("/accounts/{id}/slips", service.GenerateSlip)
	router.Post("/accounts/slips/redeem", service.RedeemSlip)
	return router
}

var accountColumns = []string{"id", "pid", "name", "email", "phone", "balance", "created_on", "is_active"}

func TestCreateAccount(t *testing.T) {
	t.Run("successful creation", func(t *testing.T) {
		service, dbMock := newAccountTestService(t, nil)
		router := accountRouter(service)

		dbMock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM accounts WHERE email = \$1\)`).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		dbMock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM accounts WHERE pid = \$1\)`).
			WithArgs("AC-1042").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		dbMock.ExpectQuery("INSERT INTO accounts").
			WithArgs("AC-1042", "Ada Obi", "ada@example.com", nil, 0.0).
			WillReturnRows(sqlmock.NewRows(accountColumns).
				AddRow(5, "AC-1042", "Ada Obi", "ada@example.com", nil, 0.0, time.Now(), true))

		body := `{"PID": "AC-1042", "name": "Ada Obi", "email": "Ada@Example.com"}`
		req := httptest.NewRequest("POST", "/accounts", bytes.NewBufferString(body))
		rr := doRequest(router, req, adminActor())

		assert.Equal(t, http.StatusOK, rr.Code)

		var a models.Account
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &a))
		assert.Equal(t, int64(5), a.ID)
		assert.Equal(t, "AC-1042", a.PID)
		assert.True(t, a.IsActive)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		service, dbMock := newAccountTestService(t, nil)
		router := accountRouter(service)

		dbMock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM accounts WHERE email = \$1\)`).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		body := `{"PID": "AC-1042", "name": "Ada Obi", "email": "ada@example.com"}`
		req := httptest.NewRequest("POST", "/accounts", bytes.NewBufferString(body))
		rr := doRequest(router, req, adminActor())

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Email already exists")
	})

	t.Run("duplicate PID", func(t *testing.T) {
		service, dbMock := newAccountTestService(t, nil)
		router := accountRouter(service)

		dbMock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM accounts WHERE email = \$1\)`).
			WithArgs("ada@example.com").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		dbMock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM accounts WHERE pid = \$1\)`).
			WithArgs("AC-1042").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		body := `{"PID": "AC-1042", "name": "Ada Obi", "email": "ada@example.com"}`
		req := httptest.NewRequest("POST", "/accounts", bytes.NewBufferString(body))
		rr := doRequest(router, req, adminActor())

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "PID already exists")
	})

	t.Run("validation failure", func(t *testing.T) {
		service, _ := newAccountTestService(t, nil)
		router := accountRouter(service)

		body := `{"name": "A", "email": "not-an-email"}`
		req := httptest.NewRequest("POST", "/accounts", bytes.NewBufferString(body))
		rr := doRequest(router, req, adminActor())

		assert.Equal(t, http.StatusBadRequest, rr.Code)

		var resp ErrorResponse
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "Validation failed", resp.Error)
	})
}

func TestGetAccount(t *testing.T) {
	service, dbMock := newAccountTestService(t, nil)
	router := accountRouter(service)

	t.Run("found", func(t *testing.T) {
		dbMock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(accountColumns).
				AddRow(5, "AC-1042", "Ada Obi", "ada@example.com", nil, 120.5, time.Now(), true))

		req := httptest.NewRequest("GET", "/accounts/5", nil)
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusOK, rr.Code)

		var a models.Account
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &a))
		assert.Equal(t, 120.5, a.Balance)
	})

	t.Run("missing account", func(t *testing.T) {
		dbMock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(accountColumns))

		req := httptest.NewRequest("GET", "/accounts/99", nil)
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("non-numeric id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/accounts/abc", nil)
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestUpdateAccount(t *testing.T) {
	service, dbMock := newAccountTestService(t, nil)
	router := accountRouter(service)

	t.Run("partial update keeps untouched fields", func(t *testing.T) {
		dbMock.ExpectQuery("UPDATE accounts SET").
			WithArgs(nil, "Ada A. Obi", nil, nil, nil, nil, int64(5)).
			WillReturnRows(sqlmock.NewRows(accountColumns).
				AddRow(5, "AC-1042", "Ada A. Obi", "ada@example.com", nil, 120.5, time.Now(), true))

		body := `{"name": "Ada A. Obi"}`
		req := httptest.NewRequest("PUT", "/accounts/5", bytes.NewBufferString(body))
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusOK, rr.Code)

		var a models.Account
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &a))
		assert.Equal(t, "Ada A. Obi", a.Name)
		assert.Equal(t, "AC-1042", a.PID)
	})

	t.Run("missing account", func(t *testing.T) {
		dbMock.ExpectQuery("UPDATE accounts SET").
			WithArgs(nil, "Ghost", nil, nil, nil, nil, int64(99)).
			WillReturnRows(sqlmock.NewRows(accountColumns))

		body := `{"name": "Ghost"}`
		req := httptest.NewRequest("PUT", "/accounts/99", bytes.NewBufferString(body))
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Account not found")
	})
}

func TestToggleActive(t *testing.T) {
	service, dbMock := newAccountTestService(t, nil)
	router := accountRouter(service)

	t.Run("flips the flag", func(t *testing.T) {
		dbMock.ExpectQuery(`UPDATE accounts SET is_active = NOT is_active WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows(accountColumns).
				AddRow(5, "AC-1042", "Ada Obi", "ada@example.com", nil, 120.5, time.Now(), false))

		req := httptest.NewRequest("PATCH", "/accounts/5/toggle-active", nil)
		rr := doRequest(router, req, adminActor())

		assert.Equal(t, http.StatusOK, rr.Code)

		var a models.Account
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &a))
		assert.False(t, a.IsActive)
	})

	t.Run("missing account", func(t *testing.T) {
		dbMock.ExpectQuery(`UPDATE accounts SET is_active = NOT is_active WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(accountColumns))

		req := httptest.NewRequest("PATCH", "/accounts/99/toggle-active", nil)
		rr := doRequest(router, req, adminActor())

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDeleteAccount(t *testing.T) {
	service, dbMock := newAccountTestService(t, nil)
	router := accountRouter(service)

	t.Run("deletes and returns no content", func(t *testing.T) {
		dbMock.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		req := httptest.NewRequest("DELETE", "/accounts/5", nil)
		rr := doRequest(router, req, adminActor())

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("missing account", func(t *testing.T) {
		dbMock.ExpectExec(`DELETE FROM accounts WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		req := httptest.NewRequest("DELETE", "/accounts/99", nil)
		rr := doRequest(router, req, adminActor())

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDepositSlips(t *testing.T) {
	t.Run("slips unavailable without redis", func(t *testing.T) {
		service, _ := newAccountTestService(t, nil)
		router := accountRouter(service)

		req := httptest.NewRequest("POST", "/accounts/5/slips", bytes.NewBufferString(`{"amount": 250}`))
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("slip for unknown account", func(t *testing.T) {
		redisClient, _ := redismock.NewClientMock()
		service, dbMock := newAccountTestService(t, redisClient)
		router := accountRouter(service)

		dbMock.ExpectQuery(`SELECT (.+) FROM accounts WHERE id = \$1`).
			WithArgs(int64(99)).
			WillReturnRows(sqlmock.NewRows(accountColumns))

		req := httptest.NewRequest("POST", "/accounts/99/slips", bytes.NewBufferString(`{"amount": 250}`))
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("slip amount must be positive", func(t *testing.T) {
		redisClient, _ := redismock.NewClientMock()
		service, _ := newAccountTestService(t, redisClient)
		router := accountRouter(service)

		req := httptest.NewRequest("POST", "/accounts/5/slips", bytes.NewBufferString(`{"amount": -10}`))
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("redeem consumes the slip", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service, _ := newAccountTestService(t, redisClient)
		router := accountRouter(service)

		slip := map[string]any{"accountId": 5, "pid": "AC-1042", "amount": 250}
		payload, err := json.Marshal(slip)
		assert.NoError(t, err)

		code := "SLIP." + base64.URLEncoding.EncodeToString(payload)
		redisMock.ExpectGet("slip:" + code).SetVal(string(payload))
		redisMock.ExpectDel("slip:" + code).SetVal(1)

		body, err := json.Marshal(map[string]string{"code": code})
		assert.NoError(t, err)

		req := httptest.NewRequest("POST", "/accounts/slips/redeem", bytes.NewBuffer(body))
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusOK, rr.Code)

		var redeemed map[string]any
		assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &redeemed))
		assert.Equal(t, "AC-1042", redeemed["pid"])
		assert.Equal(t, float64(250), redeemed["amount"])
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("redeem of expired slip", func(t *testing.T) {
		redisClient, redisMock := redismock.NewClientMock()
		service, _ := newAccountTestService(t, redisClient)
		router := accountRouter(service)

		redisMock.ExpectGet("slip:SLIP.gone").RedisNil()

		req := httptest.NewRequest("POST", "/accounts/slips/redeem", bytes.NewBufferString(`{"code": "SLIP.gone"}`))
		rr := doRequest(router, req, clerkActor())

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Contains(t, rr.Body.String(), "Invalid or expired slip")
	})
}
