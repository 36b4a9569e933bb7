package ledger

import (
	"context"

	"github.com/mohit065/bankbase/internal/models"
)

// AccountDirectory resolves account references for existence checks. The
// ledger never mutates accounts through it. Implementations return an error
// wrapping ErrNotFound when no account has the given id.
type AccountDirectory interface {
	Lookup(ctx context.Context, id int64) (*models.Account, error)
}

// Actor is the authenticated employee performing an operation.
type Actor struct {
	ID   int64
	Role string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}
