package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors carry no infrastructure dependency.

var (
	// Agent errors
	ErrAgentNotFound   = errors.New("agent not found")
	ErrInvalidCodename = errors.New("codename must be 2-12 characters")

	// Transaction errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidInput        = errors.New("invalid transaction input")

	// Social errors
	ErrAlreadyRespected = errors.New("respect already sent")
	ErrSelfRespect      = errors.New("cannot respect your own transaction")
)
