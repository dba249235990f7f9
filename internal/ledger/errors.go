package ledger

import "errors"

// Typed failures surfaced to callers. Handlers map these onto HTTP
// responses; the core never retries them on the caller's behalf.
var (
	ErrUnauthenticated     = errors.New("UNAUTHENTICATED")
	ErrRetryNeeded         = errors.New("RETRY_NEEDED")
	ErrTooEarly            = errors.New("TOO_EARLY")
	ErrAccountNotFound     = errors.New("ACCOUNT_NOT_FOUND")
	ErrAccountExists       = errors.New("ACCOUNT_EXISTS")
	ErrInsufficientBalance = errors.New("INSUFFICIENT_BALANCE")
	ErrInternal            = errors.New("INTERNAL")
)
