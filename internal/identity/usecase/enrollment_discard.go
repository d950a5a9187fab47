package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

// DiscardEnrollment drops any pending enrollment of the signed-in account.
func (s *Usecase) DiscardEnrollment(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "DiscardEnrollment")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return err
	}

	if err := s.repoCache.DeletePending(ctx, clm.AccountID); err != nil {
		slog.ErrorContext(ctx, "failed to repo delete pending enrollment", "account_id", clm.AccountID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
