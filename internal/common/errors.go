// Package common defines shared constants and sentinel errors used across
// the Nozoku server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Conversation / message errors.
	ErrInvalidParticipants = errors.New("invalid participants")
	ErrEmptyMessage        = errors.New("empty message")
	ErrNotParticipant      = errors.New("not a participant")
	ErrMessagingRestricted = errors.New("messaging restricted")

	// Subscription / verification errors.
	ErrAlreadySubscribed = errors.New("already subscribed")
	ErrMissingDocument   = errors.New("missing document")
	ErrNotVerified       = errors.New("not verified")
	ErrNotEligible       = errors.New("not eligible")

	// Wallet errors.
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
