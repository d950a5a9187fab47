package usecase

import (
	"errors"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

type translation struct {
	msg  string
	code goerror.Code
}

// Kinds sharing a message must stay indistinguishable to clients: missing vs
// expired enrollment, wrong TOTP vs wrong backup code.
var translations = map[error]translation{
	entity.ErrAccountNotFound:     {msg: "account not found", code: goerror.CodeNotFound},
	entity.ErrNoPendingEnrollment: {msg: "session expired", code: goerror.CodeNotFound},
	entity.ErrPendingExpired:      {msg: "session expired", code: goerror.CodeNotFound},
	entity.ErrInvalidCode:         {msg: "invalid code", code: goerror.CodeUnauthorized},
	entity.ErrNotEnrolled:         {msg: "two-step verification is not enabled", code: goerror.CodeConflict},
	entity.ErrTokenExpired:        {msg: "session expired", code: goerror.CodeUnauthorized},
	entity.ErrInvalidTokenKey:     {msg: "session expired", code: goerror.CodeUnauthorized},
	entity.ErrTooManyAttempts:     {msg: "too many attempts, try again later", code: goerror.CodeTooManyRequest},
	entity.ErrInvalidPassword:     {msg: "invalid password", code: goerror.CodeUnauthorized},
	entity.ErrInvalidCredentials:  {msg: "invalid email or password", code: goerror.CodeUnauthorized},
	entity.ErrForbidden:           {msg: "account not allowed", code: goerror.CodeForbidden},
}

// errorOf translates an entity error kind into a transport-neutral goerror.
// The kind stays reachable through errors.Is.
func errorOf(kind error) error {
	if errors.Is(kind, entity.ErrDecryption) {
		return goerror.NewAlert(kind)
	}

	for k, t := range translations {
		if errors.Is(kind, k) {
			return goerror.WrapBusiness(kind, t.msg, t.code)
		}
	}

	return goerror.NewServer(kind)
}
