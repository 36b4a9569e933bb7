package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mohit065/bankbase/internal/audit"
	"github.com/mohit065/bankbase/internal/config"
	"github.com/mohit065/bankbase/internal/ledger"
	"github.com/mohit065/bankbase/internal/middleware"
	"github.com/mohit065/bankbase/internal/models"
)

// AccountService owns customer account records. It doubles as the account
// directory the ledger consults for existence checks.
type AccountService struct {
	db        *sql.DB
	redis     *redis.Client
	audit     *audit.Logger
	slips     *config.SlipConfig
	validator *ValidationHelper
}

// CreateAccountRequest represents the new account payload
// @Description New account request structure
type CreateAccountRequest struct {
	PID     string  `json:"PID" validate:"required" example:"AC-1042"`
	Name    string  `json:"name" validate:"required,min=2" example:"Ada Obi"`
	Email   string  `json:"email" validate:"required,email" example:"ada@example.com"`
	Phone   *string `json:"phone" validate:"omitempty,min=7"`
	Balance float64 `json:"balance" validate:"omitempty,gte=0"`
}

// UpdateAccountRequest represents a partial account update
// @Description Account update request structure; absent fields are untouched
type UpdateAccountRequest struct {
	PID      *string  `json:"PID"`
	Name     *string  `json:"name" validate:"omitempty,min=2"`
	Email    *string  `json:"email" validate:"omitempty,email"`
	Phone    *string  `json:"phone"`
	Balance  *float64 `json:"balance" validate:"omitempty,gte=0"`
	IsActive *bool    `json:"is_active"`
}

// SlipRequest represents a deposit slip generation payload
// @Description Deposit slip request structure
type SlipRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0" example:"250"`
}

// SlipResponse carries the slip code and its QR rendering
// @Description Deposit slip response structure
type SlipResponse struct {
	Code    string `json:"code"`     // Opaque slip code
	QRImage string `json:"qr_image"` // Base64 PNG of the code
}

func NewAccountService(db *sql.DB, redisClient *redis.Client, auditLogger *audit.Logger) *AccountService {
	return &AccountService{
		db:        db,
		redis:     redisClient,
		audit:     auditLogger,
		slips:     config.LoadSlipConfig(),
		validator: NewValidationHelper(),
	}
}

// Lookup implements ledger.AccountDirectory.
func (s *AccountService) Lookup(ctx context.Context, id int64) (*models.Account, error) {
	var a models.Account
	err := s.db.QueryRowContext(ctx,
		"SELECT id, pid, name, email, phone, balance, created_on, is_active FROM accounts WHERE id = $1", id).
		Scan(&a.ID, &a.PID, &a.Name, &a.Email, &a.Phone, &a.Balance, &a.CreatedOn, &a.IsActive)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: account %d", ledger.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account %d: %w", id, err)
	}
	return &a, nil
}

// CreateAccount handles admin creation of a customer account
// @Summary Create account
// @Description Create a new customer account (admin only)
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "New account"
// @Success 200 {object} models.Account "Account created"
// @Failure 400 {string} string "Email or PID already exists"
// @Failure 403 {string} string "Admin access required"
// @Router /accounts [post]
func (s *AccountService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var exists bool
	if err := s.db.QueryRow("SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)",
		strings.ToLower(req.Email)).Scan(&exists); err == nil && exists {
		SendErrorResponse(w, "Email already exists", http.StatusBadRequest, nil)
		return
	}
	if err := s.db.QueryRow("SELECT EXISTS (SELECT 1 FROM accounts WHERE pid = $1)",
		req.PID).Scan(&exists); err == nil && exists {
		SendErrorResponse(w, "PID already exists", http.StatusBadRequest, nil)
		return
	}

	var a models.Account
	err := s.db.QueryRow(
		`INSERT INTO accounts (pid, name, email, phone, balance)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, pid, name, email, phone, balance, created_on, is_active`,
		req.PID, req.Name, strings.ToLower(req.Email), req.Phone, req.Balance).
		Scan(&a.ID, &a.PID, &a.Name, &a.Email, &a.Phone, &a.Balance, &a.CreatedOn, &a.IsActive)
	if err != nil {
		log.Printf("[ACCOUNT] Creation failed for PID %s: %v", req.PID, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	s.audit.LogAccountChange(actor.ID, a.ID, "CREATED")
	log.Printf("[ACCOUNT] Created account %d (PID %s)", a.ID, a.PID)
	SendJSON(w, http.StatusOK, a)
}

// UpdateAccount applies a partial update to an account
// @Summary Update account
// @Description Partially update a customer account
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Param request body UpdateAccountRequest true "Fields to update"
// @Success 200 {object} models.Account "Updated account"
// @Failure 404 {string} string "Account not found"
// @Router /accounts/{id} [put]
func (s *AccountService) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var a models.Account
	err = s.db.QueryRow(
		`UPDATE accounts SET
			pid = COALESCE($1, pid),
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			balance = COALESCE($5, balance),
			is_active = COALESCE($6, is_active)
		 WHERE id = $7
		 RETURNING id, pid, name, email, phone, balance, created_on, is_active`,
		req.PID, req.Name, req.Email, req.Phone, req.Balance, req.IsActive, id).
		Scan(&a.ID, &a.PID, &a.Name, &a.Email, &a.Phone, &a.Balance, &a.CreatedOn, &a.IsActive)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[ACCOUNT] Update failed for %d: %v", id, err)
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, a)
}

// ListAccounts returns all customer accounts
// @Summary List accounts
// @Description List all customer accounts
// @Tags accounts
// @Produce json
// @Success 200 {array} models.Account "Accounts"
// @Router /accounts [get]
func (s *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Query(
		"SELECT id, pid, name, email, phone, balance, created_on, is_active FROM accounts ORDER BY id ASC")
	if err != nil {
		log.Printf("[ACCOUNT] List failed: %v", err)
		SendErrorResponse(w, "Failed to list accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.PID, &a.Name, &a.Email, &a.Phone, &a.Balance,
			&a.CreatedOn, &a.IsActive); err != nil {
			log.Printf("[ACCOUNT] Scan failed: %v", err)
			SendErrorResponse(w, "Failed to list accounts", http.StatusInternalServerError, nil)
			return
		}
		accounts = append(accounts, a)
	}

	SendJSON(w, http.StatusOK, accounts)
}

// GetAccount returns one customer account
// @Summary Get account
// @Description Fetch one customer account by id
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} models.Account "Account"
// @Failure 404 {string} string "Account not found"
// @Router /accounts/{id} [get]
func (s *AccountService) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	a, err := s.Lookup(r.Context(), id)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, a)
}

// ToggleActive flips an account's active flag
// @Summary Toggle account active flag
// @Description Activate or deactivate a customer account (admin only)
// @Tags accounts
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {object} models.Account "Updated account"
// @Failure 404 {string} string "Account not found"
// @Router /accounts/{id}/toggle-active [patch]
func (s *AccountService) ToggleActive(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	var a models.Account
	err = s.db.QueryRow(
		`UPDATE accounts SET is_active = NOT is_active WHERE id = $1
		 RETURNING id, pid, name, email, phone, balance, created_on, is_active`, id).
		Scan(&a.ID, &a.PID, &a.Name, &a.Email, &a.Phone, &a.Balance, &a.CreatedOn, &a.IsActive)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[ACCOUNT] Toggle failed for %d: %v", id, err)
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}

	s.audit.LogAccountChange(actor.ID, a.ID, "TOGGLED")
	SendJSON(w, http.StatusOK, a)
}

// DeleteAccount removes a customer account
// @Summary Delete account
// @Description Delete a customer account (admin only)
// @Tags accounts
// @Param id path int true "Account ID"
// @Success 204 "Deleted"
// @Failure 404 {string} string "Account not found"
// @Router /accounts/{id} [delete]
func (s *AccountService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	result, err := s.db.Exec("DELETE FROM accounts WHERE id = $1", id)
	if err != nil {
		log.Printf("[ACCOUNT] Delete failed for %d: %v", id, err)
		SendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	s.audit.LogAccountChange(actor.ID, id, "DELETED")
	log.Printf("[ACCOUNT] Deleted account %d", id)
	w.WriteHeader(http.StatusNoContent)
}

// GenerateSlip issues an expiring, one-shot deposit slip for an account
// @Summary Generate deposit slip
// @Description Create a QR deposit slip a teller can scan to pre-fill a deposit
// @Tags accounts
// @Accept json
// @Produce json
// @Param id path int true "Account ID"
// @Param request body SlipRequest true "Slip amount"
// @Success 200 {object} SlipResponse "Slip"
// @Failure 404 {string} string "Account not found"
// @Failure 503 {string} string "Slips unavailable"
// @Router /accounts/{id}/slips [post]
func (s *AccountService) GenerateSlip(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		SendErrorResponse(w, "Deposit slips unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	var req SlipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	account, err := s.Lookup(r.Context(), id)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	slipData := map[string]any{
		"accountId": account.ID,
		"pid":       account.PID,
		"amount":    req.Amount,
		"timestamp": time.Now().Unix(),
		"nonce":     uuid.New().String(),
	}

	jsonData, err := json.Marshal(slipData)
	if err != nil {
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	code := s.slips.CodePrefix + "." + base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("slip:%s", code)
	if err := s.redis.Set(r.Context(), key, jsonData, s.slips.TTL).Err(); err != nil {
		log.Printf("[ACCOUNT] Failed to store slip: %v", err)
		SendErrorResponse(w, "Failed to generate slip", http.StatusInternalServerError, nil)
		return
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		SendErrorResponse(w, "Failed to generate slip", http.StatusInternalServerError, nil)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		SendErrorResponse(w, "Failed to generate slip", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[ACCOUNT] Slip generated for account %d", account.ID)
	SendJSON(w, http.StatusOK, SlipResponse{
		Code:    code,
		QRImage: base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

// RedeemSlip consumes a deposit slip and returns its pre-filled details
// @Summary Redeem deposit slip
// @Description Consume a one-shot deposit slip; the slip is deleted on redemption
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body object{code=string} true "Slip code"
// @Success 200 {object} map[string]any "Slip details"
// @Failure 404 {string} string "Invalid or expired slip"
// @Router /accounts/slips/redeem [post]
func (s *AccountService) RedeemSlip(w http.ResponseWriter, r *http.Request) {
	if s.redis == nil {
		SendErrorResponse(w, "Deposit slips unavailable", http.StatusServiceUnavailable, nil)
		return
	}

	var req struct {
		Code string `json:"code" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	key := fmt.Sprintf("slip:%s", req.Code)
	data, err := s.redis.Get(r.Context(), key).Bytes()
	if err == redis.Nil {
		SendErrorResponse(w, "Invalid or expired slip", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[ACCOUNT] Slip fetch failed: %v", err)
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	var slip map[string]any
	if err := json.Unmarshal(data, &slip); err != nil {
		SendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	s.redis.Del(r.Context(), key)

	SendJSON(w, http.StatusOK, slip)
}
