package models

import "time"

// Account is a customer account. The ledger only reads accounts for
// existence checks; balance is a managed attribute, not a derived sum of
// the transaction log.
type Account struct {
	ID        int64     `json:"id" db:"id"`
	PID       string    `json:"PID" db:"pid"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     *string   `json:"phone" db:"phone"`
	Balance   float64   `json:"balance" db:"balance"`
	CreatedOn time.Time `json:"created_on" db:"created_on"`
	IsActive  bool      `json:"is_active" db:"is_active"`
}
