package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

type ConfirmEnrollmentInput struct {
	Code string `json:"code" validate:"required,totp"`
}

// ConfirmEnrollment proves possession of the pending secret without changing
// any state.
func (s *Usecase) ConfirmEnrollment(ctx context.Context, in ConfirmEnrollmentInput) error {
	ctx, span := s.startSpan(ctx, "ConfirmEnrollment")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.throttle(ctx, clm.AccountID); err != nil {
		return err
	}

	pending, err := s.loadPending(ctx, clm.AccountID)
	if err != nil {
		return err
	}

	if !s.totp.Verify(in.Code, pending.Secret, s.clock.Now(), s.totpWindow()) {
		slog.WarnContext(ctx, "invalid totp code on enrollment confirm", "account_id", clm.AccountID)
		return errorOf(entity.ErrInvalidCode)
	}

	return nil
}
