package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

type GetEnrollmentStatusOutput struct {
	State                entity.EnrollmentState
	Enabled              bool
	EnabledAt            *time.Time
	BackupCodesRemaining int
}

func (s *Usecase) GetEnrollmentStatus(ctx context.Context) (*GetEnrollmentStatusOutput, error) {
	ctx, span := s.startSpan(ctx, "GetEnrollmentStatus")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.getEnrollment(ctx, clm.AccountID)
	if err != nil {
		return nil, err
	}

	pending, err := s.hasLivePending(ctx, clm.AccountID)
	if err != nil {
		return nil, err
	}

	out := &GetEnrollmentStatusOutput{State: entity.StateOf(enrollment, pending)}
	if enrollment != nil && enrollment.Enabled {
		out.Enabled = true
		out.EnabledAt = enrollment.EnabledAt
		out.BackupCodesRemaining = len(enrollment.BackupCodesHashed)
	}

	return out, nil
}

func (s *Usecase) hasLivePending(ctx context.Context, accountID int64) (bool, error) {
	p, err := s.repoCache.GetPending(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get pending enrollment", "account_id", accountID, "error", err)
		return false, goerror.NewServer(err)
	}
	return !p.Expired(s.clock.Now(), s.pendingTTL()), nil
}
