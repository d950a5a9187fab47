package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

type DisableEnrollmentInput struct {
	Password string `json:"password" validate:"required,password"`
}

// DisableEnrollment turns two-step verification off after the password is
// re-checked. The stored secret and backup hashes are purged. Disabling an
// account that is not enabled succeeds without an event.
func (s *Usecase) DisableEnrollment(ctx context.Context, in DisableEnrollmentInput) error {
	ctx, span := s.startSpan(ctx, "DisableEnrollment")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	acc, err := s.verifyPassword(ctx, clm.AccountID, in.Password)
	if err != nil {
		return err
	}

	changed, err := s.disable(ctx, acc.ID)
	if err != nil {
		return err
	}

	if changed {
		s.publishSecurityEvent(ctx, SecurityEvent{
			Type:      entity.SecurityEventDisabled,
			AccountID: acc.ID,
			Email:     acc.Email,
			ActorID:   acc.ID,
		})
	}

	return nil
}

func (s *Usecase) disable(ctx context.Context, accountID int64) (bool, error) {
	changed, err := s.repoDB.DisableEnrollment(ctx, accountID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo disable enrollment", "account_id", accountID, "error", err)
		return false, goerror.NewServer(err)
	}

	if err := s.repoCache.DeletePending(ctx, accountID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete pending enrollment", "account_id", accountID, "error", err)
		return false, goerror.NewServer(err)
	}

	return changed, nil
}
