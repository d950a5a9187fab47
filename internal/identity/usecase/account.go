package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

func (s *Usecase) getAccount(ctx context.Context, accountID int64) (*entity.Account, error) {
	acc, err := s.repoDB.GetAccountByID(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "account not found", "account_id", accountID)
		return nil, errorOf(entity.ErrAccountNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by id", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return acc, nil
}

// getEnrollment returns nil without error when the account never enrolled.
func (s *Usecase) getEnrollment(ctx context.Context, accountID int64) (*entity.TotpEnrollment, error) {
	e, err := s.repoDB.GetEnrollment(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get enrollment", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}
	return e, nil
}

// loadPending returns the live pending enrollment. Stale state is removed so a
// restart from begin is the only way forward.
func (s *Usecase) loadPending(ctx context.Context, accountID int64) (*entity.PendingEnrollment, error) {
	p, err := s.repoCache.GetPending(ctx, accountID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "no pending enrollment", "account_id", accountID)
		return nil, errorOf(entity.ErrNoPendingEnrollment)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get pending enrollment", "account_id", accountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if p.Expired(s.clock.Now(), s.pendingTTL()) {
		slog.WarnContext(ctx, "pending enrollment expired", "account_id", accountID, "created_at", p.CreatedAt)
		if err := s.repoCache.DeletePending(ctx, accountID); err != nil {
			slog.WarnContext(ctx, "failed to delete expired pending enrollment", "account_id", accountID, "error", err)
		}
		return nil, errorOf(entity.ErrPendingExpired)
	}

	return p, nil
}
