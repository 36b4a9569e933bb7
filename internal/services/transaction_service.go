package services

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"

	"github.com/mohit065/bankbase/internal/audit"
	"github.com/mohit065/bankbase/internal/ledger"
	"github.com/mohit065/bankbase/internal/middleware"
	"github.com/mohit065/bankbase/internal/models"
)

// cashParty names the counterparty on pacs.008 exports of deposits and
// withdrawals, which have only one account side.
const cashParty = "CASH"

type TransactionService struct {
	db        ledger.AccountDirectory
	ledger    *ledger.Service
	audit     *audit.Logger
	validator *ValidationHelper
	currency  string
	bic       string
}

// CreateTransactionRequest represents the new transaction payload
// @Description New transaction request structure
type CreateTransactionRequest struct {
	Type     models.TransactionType `json:"type" validate:"required" example:"transfer"`
	Amount   float64                `json:"amount" example:"250"`
	SenderID *int64                 `json:"sender_id" example:"1"`
	RecvID   *int64                 `json:"recv_id" example:"2"`
}

func NewTransactionService(ledgerService *ledger.Service, dir ledger.AccountDirectory, auditLogger *audit.Logger) *TransactionService {
	currency := "USD"
	if envCurrency := os.Getenv("BANK_CURRENCY"); envCurrency != "" {
		currency = envCurrency
	}
	bic := "BANKBASE"
	if envBIC := os.Getenv("BANK_BIC"); envBIC != "" {
		bic = envBIC
	}

	return &TransactionService{
		db:        dir,
		ledger:    ledgerService,
		audit:     auditLogger,
		validator: NewValidationHelper(),
		currency:  currency,
		bic:       bic,
	}
}

// CreateTransaction records a new monetary movement
// @Summary Create transaction
// @Description Record a deposit, withdrawal or transfer
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body CreateTransactionRequest true "New transaction"
// @Success 200 {object} models.Transaction "Created transaction"
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 404 {object} ErrorResponse "Sender or receiver account not found"
// @Router /transactions [post]
func (s *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	tx, err := s.ledger.Create(r.Context(), ledger.CreateParams{
		Type:     req.Type,
		Amount:   req.Amount,
		SenderID: req.SenderID,
		RecvID:   req.RecvID,
	}, actor)
	if err != nil {
		log.Printf("[TX] Creation rejected: %v", err)
		SendLedgerError(w, err)
		return
	}

	log.Printf("[TX] Transaction %d created (%s, amount %.2f) by employee %d",
		tx.ID, tx.Type, tx.Amount, actor.ID)
	SendJSON(w, http.StatusOK, tx)
}

// ListTransactions returns all transactions
// @Summary List transactions
// @Description List every transaction, oldest first
// @Tags transactions
// @Produce json
// @Success 200 {array} models.Transaction "Transactions"
// @Router /transactions [get]
func (s *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	txs, err := s.ledger.List(r.Context(), actor)
	if err != nil {
		log.Printf("[TX] List failed: %v", err)
		SendLedgerError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, txs)
}

// ReverseTransaction reverses a transaction
// @Summary Reverse transaction
// @Description Flag a transaction reversed and record the paired reversal (admin only)
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} models.ReversalResult "Original and reversal"
// @Failure 403 {object} ErrorResponse "Only admins can reverse transactions"
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Failure 409 {object} ErrorResponse "Already reversed or a reversal"
// @Router /transactions/{id}/reverse [post]
func (s *TransactionService) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid transaction id", http.StatusBadRequest, nil)
		return
	}

	result, err := s.ledger.Reverse(r.Context(), id, actor)
	if err != nil {
		log.Printf("[TX] Reversal of %d rejected: %v", id, err)
		SendLedgerError(w, err)
		return
	}

	s.audit.LogReversal(actor.ID, result.Original.ID, result.Reversal.ID, result.Original.Amount)
	log.Printf("[TX] Transaction %d reversed by employee %d (reversal %d)",
		result.Original.ID, actor.ID, result.Reversal.ID)
	SendJSON(w, http.StatusOK, result)
}

// FilterByDate returns transactions inside an inclusive time window
// @Summary Filter transactions by date
// @Description List transactions whose timestamp falls in [start, end]
// @Tags transactions
// @Produce json
// @Param start query string true "Start instant (inclusive), RFC 3339"
// @Param end query string true "End instant (inclusive), RFC 3339"
// @Success 200 {array} models.Transaction "Transactions"
// @Failure 400 {object} ErrorResponse "Unparseable instant"
// @Router /transactions/by-date [get]
func (s *TransactionService) FilterByDate(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	start, err := parseInstant(r.URL.Query().Get("start"))
	if err != nil {
		SendErrorResponse(w, "Invalid start instant", http.StatusBadRequest, nil)
		return
	}
	end, err := parseInstant(r.URL.Query().Get("end"))
	if err != nil {
		SendErrorResponse(w, "Invalid end instant", http.StatusBadRequest, nil)
		return
	}

	txs, err := s.ledger.ListByDate(r.Context(), start, end, actor)
	if err != nil {
		log.Printf("[TX] Date filter failed: %v", err)
		SendLedgerError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, txs)
}

// FilterByAccount returns transactions touching an account
// @Summary Filter transactions by account
// @Description List every transaction where the account is sender or receiver
// @Tags transactions
// @Produce json
// @Param id path int true "Account ID"
// @Success 200 {array} models.Transaction "Transactions"
// @Failure 404 {object} ErrorResponse "Account not found"
// @Router /transactions/by-account/{id} [get]
func (s *TransactionService) FilterByAccount(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accountID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid account id", http.StatusBadRequest, nil)
		return
	}

	txs, err := s.ledger.ListByAccount(r.Context(), accountID, actor)
	if err != nil {
		log.Printf("[TX] Account filter failed: %v", err)
		SendLedgerError(w, err)
		return
	}

	SendJSON(w, http.StatusOK, txs)
}

// ExportISO20022 renders a transaction as a pacs.008 credit transfer
// @Summary Export transaction as ISO 20022
// @Description Render a stored transaction as a pacs.008 FIToFICustomerCreditTransfer XML document
// @Tags transactions
// @Produce json
// @Param id path int true "Transaction ID"
// @Success 200 {object} object{messageType=string,xml=string}
// @Failure 404 {object} ErrorResponse "Transaction not found"
// @Router /transactions/{id}/iso20022 [get]
func (s *TransactionService) ExportISO20022(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		SendErrorResponse(w, "Invalid transaction id", http.StatusBadRequest, nil)
		return
	}

	tx, err := s.ledger.Get(r.Context(), id, actor)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	doc, err := s.buildPacs008(r, tx)
	if err != nil {
		log.Printf("[TX] ISO 20022 export of %d failed: %v", id, err)
		SendErrorResponse(w, "Failed to export transaction", http.StatusInternalServerError, nil)
		return
	}

	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		SendErrorResponse(w, "Failed to export transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"messageType": "pacs.008.001.08",
		"xml":         xml.Header + string(xmlData),
	})
}

// buildPacs008 maps a ledger row onto a pacs.008 credit transfer. Deposits
// and withdrawals carry the CASH placeholder on their missing side.
func (s *TransactionService) buildPacs008(r *http.Request, tx *models.Transaction) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	debtor, err := s.partyName(r, tx.SenderID)
	if err != nil {
		return nil, err
	}
	creditor, err := s.partyName(r, tx.RecvID)
	if err != nil {
		return nil, err
	}

	msgID := uuid.New().String()
	endToEnd := fmt.Sprintf("BB-%d", tx.ID)
	creDtTm := time.Now()
	settlementDate := tx.Timestamp

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgID),
			CreDtTm: common.ISODateTime(creDtTm),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(s.currency),
				Value: tx.Amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(endToEnd)}[0],
					EndToEndId: common.Max35Text(endToEnd),
					TxId:       &[]common.Max35Text{common.Max35Text(strconv.FormatInt(tx.ID, 10))}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode(s.currency),
					Value: tx.Amount,
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier(s.bic)}[0],
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(debtor)}[0],
				},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier(s.bic)}[0],
					},
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(creditor)}[0],
				},
			},
		},
	}

	return doc, nil
}

func (s *TransactionService) partyName(r *http.Request, accountID *int64) (string, error) {
	if accountID == nil {
		return cashParty, nil
	}
	account, err := s.db.Lookup(r.Context(), *accountID)
	if err != nil {
		return "", err
	}
	return account.PID, nil
}

// parseInstant accepts RFC 3339 instants with or without a zone offset;
// offset-less instants are taken as UTC.
func parseInstant(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty instant")
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", value)
}
