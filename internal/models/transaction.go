package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TransactionType is the canonical movement type. It is stored as text and
// validated at the SQL boundary; there is no second boundary-facing enum.
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeTransfer   TransactionType = "transfer"
	TypeReversal   TransactionType = "reversal"
)

// Valid reports whether t is one of the four known movement types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer, TypeReversal:
		return true
	}
	return false
}

// Value implements driver.Valuer for TransactionType
func (t TransactionType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown transaction type %q", string(t))
	}
	return string(t), nil
}

// Scan implements sql.Scanner for TransactionType
func (t *TransactionType) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("cannot scan %T into TransactionType", value)
	}

	tt := TransactionType(s)
	if !tt.Valid() {
		return fmt.Errorf("unknown transaction type %q", s)
	}
	*t = tt
	return nil
}

// Transaction is a single monetary movement. Rows are immutable after
// creation except for the reversed flag, which flips to true at most once.
type Transaction struct {
	ID        int64           `json:"id" db:"id"`
	SenderID  *int64          `json:"sender_id" db:"sender_id"`
	RecvID    *int64          `json:"recv_id" db:"recv_id"`
	Amount    float64         `json:"amount" db:"amount"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
	Reversed  bool            `json:"reversed" db:"reversed"`
	Type      TransactionType `json:"type" db:"type"`
}

// ReversalResult pairs a reversed transaction with the reversal that negates it.
type ReversalResult struct {
	Original Transaction `json:"original"`
	Reversal Transaction `json:"reversal"`
}
