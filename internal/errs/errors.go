package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound  = errors.New("not_found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")
	ErrInvalid   = errors.New("invalid")
	// ErrImmutable indicates an attempt to change immutable fields
	ErrImmutable = errors.New("immutable")

	// ErrInsufficientFunds indicates a non-loan transfer source lacks the amount.
	ErrInsufficientFunds = errors.New("insufficient_funds")
	// ErrCurrencyMismatch indicates a cross-currency transfer was attempted.
	ErrCurrencyMismatch = errors.New("cross-currency transfer not supported")
	// ErrSameAccount indicates a transfer naming the same account on both sides.
	ErrSameAccount = errors.New("from and to account must differ")
	// ErrTransferImmutable indicates an attempt to edit a transfer or to retype
	// a transaction to/from transfer.
	ErrTransferImmutable = errors.New("transfers cannot be edited")
)
