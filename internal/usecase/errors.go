package usecase

import "errors"

// Sentinel errors dipakai handler untuk mapping ke HTTP status.
var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state for this operation")
	ErrExpired         = errors.New("donation window expired")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidLogin    = errors.New("invalid email or password")
	ErrInvalidOTP      = errors.New("invalid or expired OTP")
	ErrInvalidToken    = errors.New("invalid or revoked token")
	ErrTooManyRequests = errors.New("too many requests")
	ErrAccountLocked   = errors.New("too many failed attempts, try again later")

	// ErrReceiptNotAvailable covers both a donation that does not exist and
	// one that is not verified, so the public endpoint leaks nothing about
	// which of the two it was.
	ErrReceiptNotAvailable = errors.New("receipt not available")
)
