package entity

import "errors"

// Error kinds of the two-step core. Usecases translate them into transport
// errors with uniform messages.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrNoPendingEnrollment = errors.New("no pending enrollment")
	ErrPendingExpired      = errors.New("pending enrollment expired")
	ErrInvalidCode         = errors.New("invalid code")
	ErrNotEnrolled         = errors.New("two-step verification not enabled")
	ErrTokenExpired        = errors.New("token key expired")
	ErrInvalidTokenKey     = errors.New("invalid token key")
	ErrDecryption          = errors.New("stored secret failed to decrypt")
	ErrTooManyAttempts     = errors.New("too many attempts")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrForbidden           = errors.New("account not allowed")
)
