package ledger

import "errors"

// Domain errors for the transaction subsystem. Callers branch with
// errors.Is; the HTTP layer maps each kind to a status code. Details are
// attached by wrapping, e.g. fmt.Errorf("%w: amount must be positive", ErrValidation).
var (
	// ErrValidation marks malformed or rule-violating input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a missing account or transaction reference.
	ErrNotFound = errors.New("not found")

	// ErrForbidden marks an actor lacking the role an operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict marks an operation disallowed by current state,
	// such as reversing an already-reversed transaction.
	ErrConflict = errors.New("conflict")
)
