package entities

import "errors"

// Stable error reasons surfaced by the betting engine. Callers branch on these
// with errors.Is; wrapping adds context without changing the reason.
var (
	// Validation errors. Recoverable by retrying with corrected input.
	ErrZeroAmount     = errors.New("bet amount must be positive")
	ErrAmountTooLarge = errors.New("bet amount exceeds 128-bit range")
	ErrOddsOutOfRange = errors.New("target odds outside allowed range")
	ErrExceedsMaxBet  = errors.New("bet amount exceeds risk-bounded maximum")

	// Timing errors. ErrTooEarly is recoverable by waiting for the resolving
	// block; ErrHashExpired is not — the stake will be swept to the bankroll.
	ErrTooEarly        = errors.New("resolving block not yet mined")
	ErrHashUnavailable = errors.New("resolving block hash unavailable")
	ErrHashExpired     = errors.New("resolving block hash beyond lookback horizon")

	// Authorization errors.
	ErrUnauthorized       = errors.New("caller not authorized for this operation")
	ErrSessionExpired     = errors.New("session authorization expired")
	ErrSessionCapExceeded = errors.New("bet amount exceeds session per-bet cap")
	ErrInvalidSignature   = errors.New("session signature invalid")

	// State errors.
	ErrBetNotFound = errors.New("bet does not exist")
	ErrNotPending  = errors.New("bet is not pending")

	// External custody failures.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
