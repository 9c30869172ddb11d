package ledger

import "errors"

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrInvalidRequest      = errors.New("invalid request")
)
