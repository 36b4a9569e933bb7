package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mohit065/bankbase/internal/models"
)

// Service is the transaction ledger: it validates, records, reverses and
// queries monetary movements. Storage is the shared lib/pq pool; account
// existence checks go through the AccountDirectory.
type Service struct {
	db  *sql.DB
	dir AccountDirectory
}

func NewService(db *sql.DB, dir AccountDirectory) *Service {
	return &Service{db: db, dir: dir}
}

// CreateParams describes a requested movement. SenderID and RecvID are
// optional; which of them must be present depends on Type.
type CreateParams struct {
	Type     models.TransactionType
	Amount   float64
	SenderID *int64
	RecvID   *int64
}

// Create validates and records a new transaction. Any authenticated
// employee may record a movement; actor carries no required role here.
// Balances are not touched.
func (s *Service) Create(ctx context.Context, p CreateParams, actor Actor) (*models.Transaction, error) {
	if p.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	switch p.Type {
	case models.TypeDeposit:
		if p.SenderID != nil || p.RecvID == nil {
			return nil, fmt.Errorf("%w: deposit must have recv_id only", ErrValidation)
		}
	case models.TypeWithdrawal:
		if p.SenderID == nil || p.RecvID != nil {
			return nil, fmt.Errorf("%w: withdrawal must have sender_id only", ErrValidation)
		}
	case models.TypeTransfer:
		if p.SenderID == nil || p.RecvID == nil {
			return nil, fmt.Errorf("%w: transfer must have both sender_id and recv_id", ErrValidation)
		}
	case models.TypeReversal:
		return nil, fmt.Errorf("%w: reversal cannot be created directly", ErrValidation)
	default:
		return nil, fmt.Errorf("%w: unknown transaction type %q", ErrValidation, string(p.Type))
	}

	if p.SenderID != nil {
		if _, err := s.dir.Lookup(ctx, *p.SenderID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: sender account not found", ErrNotFound)
			}
			return nil, err
		}
	}
	if p.RecvID != nil {
		if _, err := s.dir.Lookup(ctx, *p.RecvID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: receiver account not found", ErrNotFound)
			}
			return nil, err
		}
	}

	tx := models.Transaction{
		SenderID:  p.SenderID,
		RecvID:    p.RecvID,
		Amount:    p.Amount,
		Timestamp: time.Now().UTC(),
		Reversed:  false,
		Type:      p.Type,
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO transactions (sender_id, recv_id, amount, timestamp, reversed, type)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		tx.SenderID, tx.RecvID, tx.Amount, tx.Timestamp, tx.Reversed, tx.Type).Scan(&tx.ID)
	if err != nil {
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	return &tx, nil
}

// Reverse flags the target transaction reversed and records the paired
// reversal (sender and receiver swapped, same amount) in a single database
// transaction. The original row is locked so concurrent reversal attempts
// serialize; the loser observes reversed = true and gets ErrConflict.
func (s *Service) Reverse(ctx context.Context, transactionID int64, actor Actor) (*models.ReversalResult, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can reverse transactions", ErrForbidden)
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reversal: %w", err)
	}
	defer dbTx.Rollback()

	var (
		original         models.Transaction
		senderID, recvID sql.NullInt64
	)
	err = dbTx.QueryRowContext(ctx,
		`SELECT id, sender_id, recv_id, amount, timestamp, reversed, type
		 FROM transactions WHERE id = $1 FOR UPDATE`, transactionID).
		Scan(&original.ID, &senderID, &recvID, &original.Amount,
			&original.Timestamp, &original.Reversed, &original.Type)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction not found", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction %d: %w", transactionID, err)
	}
	original.SenderID = nullableID(senderID)
	original.RecvID = nullableID(recvID)

	if original.Reversed {
		return nil, fmt.Errorf("%w: transaction is already reversed", ErrConflict)
	}
	if original.Type == models.TypeReversal {
		return nil, fmt.Errorf("%w: cannot reverse a reversal transaction", ErrConflict)
	}

	if _, err := dbTx.ExecContext(ctx,
		`UPDATE transactions SET reversed = TRUE WHERE id = $1`, original.ID); err != nil {
		return nil, fmt.Errorf("flag transaction %d reversed: %w", original.ID, err)
	}

	reversal := models.Transaction{
		SenderID:  original.RecvID,
		RecvID:    original.SenderID,
		Amount:    original.Amount,
		Timestamp: time.Now().UTC(),
		Reversed:  false,
		Type:      models.TypeReversal,
	}
	err = dbTx.QueryRowContext(ctx,
		`INSERT INTO transactions (sender_id, recv_id, amount, timestamp, reversed, type)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		reversal.SenderID, reversal.RecvID, reversal.Amount,
		reversal.Timestamp, reversal.Reversed, reversal.Type).Scan(&reversal.ID)
	if err != nil {
		return nil, fmt.Errorf("insert reversal: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reversal: %w", err)
	}

	original.Reversed = true
	return &models.ReversalResult{Original: original, Reversal: reversal}, nil
}

// Get returns a single transaction by id.
func (s *Service) Get(ctx context.Context, transactionID int64, actor Actor) (*models.Transaction, error) {
	var (
		tx               models.Transaction
		senderID, recvID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, sender_id, recv_id, amount, timestamp, reversed, type
		 FROM transactions WHERE id = $1`, transactionID).
		Scan(&tx.ID, &senderID, &recvID, &tx.Amount, &tx.Timestamp, &tx.Reversed, &tx.Type)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: transaction not found", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction %d: %w", transactionID, err)
	}
	tx.SenderID = nullableID(senderID)
	tx.RecvID = nullableID(recvID)
	return &tx, nil
}

// List returns every transaction, oldest first. Visible to any
// authenticated employee.
func (s *Service) List(ctx context.Context, actor Actor) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT id, sender_id, recv_id, amount, timestamp, reversed, type
		 FROM transactions ORDER BY id ASC`)
}

// ListByDate returns transactions whose timestamp falls in [start, end],
// both inclusive. A start after end yields an empty result, not an error.
// The window is visible to every authenticated employee regardless of role.
func (s *Service) ListByDate(ctx context.Context, start, end time.Time, actor Actor) ([]models.Transaction, error) {
	return s.queryTransactions(ctx,
		`SELECT id, sender_id, recv_id, amount, timestamp, reversed, type
		 FROM transactions WHERE timestamp >= $1 AND timestamp <= $2 ORDER BY id ASC`,
		start, end)
}

// ListByAccount returns every transaction in which the account appears as
// sender or receiver.
func (s *Service) ListByAccount(ctx context.Context, accountID int64, actor Actor) ([]models.Transaction, error) {
	if _, err := s.dir.Lookup(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: account not found", ErrNotFound)
		}
		return nil, err
	}

	return s.queryTransactions(ctx,
		`SELECT id, sender_id, recv_id, amount, timestamp, reversed, type
		 FROM transactions WHERE sender_id = $1 OR recv_id = $1 ORDER BY id ASC`,
		accountID)
}

func (s *Service) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var (
			tx               models.Transaction
			senderID, recvID sql.NullInt64
		)
		if err := rows.Scan(&tx.ID, &senderID, &recvID, &tx.Amount,
			&tx.Timestamp, &tx.Reversed, &tx.Type); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.SenderID = nullableID(senderID)
		tx.RecvID = nullableID(recvID)
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return txs, nil
}

func nullableID(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
