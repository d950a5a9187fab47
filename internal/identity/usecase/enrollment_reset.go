package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

const (
	objectTwoStep = "identity.2fa"
	actionReset   = "reset"
)

type ResetEnrollmentInput struct {
	AccountID int64 `json:"account_id" validate:"required,gt=0"`
}

// ResetEnrollment disables two-step verification of another account on behalf
// of an operator. It needs no password but the caller must hold the reset
// permission.
func (s *Usecase) ResetEnrollment(ctx context.Context, in ResetEnrollmentInput) error {
	ctx, span := s.startSpan(ctx, "ResetEnrollment")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticatedAndAuthorized(ctx, objectTwoStep, actionReset)
	if err != nil {
		return err
	}

	target, err := s.getAccount(ctx, in.AccountID)
	if err != nil {
		return err
	}

	changed, err := s.disable(ctx, target.ID)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "two-step verification reset", "account_id", target.ID, "actor_id", clm.AccountID, "changed", changed)

	if changed {
		s.publishSecurityEvent(ctx, SecurityEvent{
			Type:      entity.SecurityEventReset,
			AccountID: target.ID,
			Email:     target.Email,
			ActorID:   clm.AccountID,
		})
	}

	return nil
}
