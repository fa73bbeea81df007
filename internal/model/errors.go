// Package model service errors
package model

import "errors"

// Non-fatal infrastructure errors. Feed failures degrade to the synthetic
// price, remote sync failures leave local state authoritative.
var (
	ErrFeedUnavailable  = errors.New("price source unreachable")
	ErrAuthExpired      = errors.New("session expired")
	ErrRemoteSyncFailed = errors.New("remote sync failed")
)

// Invariant violations, rejected synchronously at the point of the action.
var (
	ErrPositionLimit     = errors.New("only one active position is allowed")
	ErrUnknownKind       = errors.New("unknown position kind")
	ErrBelowMinimum      = errors.New("amount below minimum")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDurationTooShort  = errors.New("minimum duration is one minute")
	ErrTradeLimitReached = errors.New("trade limit reached for this session")
	ErrPositionNotFound  = errors.New("position not found")
	ErrPairLocked        = errors.New("pair change blocked while a position is open")
)
