package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/vault"
)

type EnableEnrollmentInput struct {
	Code string `json:"code" validate:"required,totp"`
}

type EnableEnrollmentOutput struct {
	EnabledAt time.Time
}

// EnableEnrollment re-verifies the code against the pending secret and, on
// success, commits the encrypted secret and hashed backup codes. A failed
// attempt keeps the pending state for a retry.
func (s *Usecase) EnableEnrollment(ctx context.Context, in EnableEnrollmentInput) (*EnableEnrollmentOutput, error) {
	ctx, span := s.startSpan(ctx, "EnableEnrollment")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.throttle(ctx, clm.AccountID); err != nil {
		return nil, err
	}

	pending, err := s.loadPending(ctx, clm.AccountID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !s.totp.Verify(in.Code, pending.Secret, now, s.totpWindow()) {
		slog.WarnContext(ctx, "invalid totp code on enrollment enable", "account_id", clm.AccountID)
		return nil, errorOf(entity.ErrInvalidCode)
	}

	blob, err := s.vault.Encrypt([]byte(pending.Secret), vault.Scope{
		AccountID: clm.AccountID,
		Purpose:   vault.PurposeTOTPSecret,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to encrypt totp secret", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	hashes, err := s.backupHasher.HashAll(pending.BackupCodes)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash backup codes", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	enrollment := entity.TotpEnrollment{
		ID:                s.uid.Generate(),
		AccountID:         clm.AccountID,
		SecretEncrypted:   blob,
		BackupCodesHashed: hashes,
		Enabled:           true,
		EnabledAt:         &now,
	}
	if err := s.repoDB.UpsertEnrollment(ctx, enrollment); err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert enrollment", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.repoCache.DeletePending(ctx, clm.AccountID); err != nil {
		slog.WarnContext(ctx, "failed to delete pending enrollment", "account_id", clm.AccountID, "error", err)
	}

	// the enabling code is spent for login too
	if err := s.guardReplay(ctx, clm.AccountID, in.Code); err != nil {
		slog.WarnContext(ctx, "failed to mark enabling code used", "account_id", clm.AccountID, "error", err)
	}

	s.resetThrottle(ctx, clm.AccountID)
	s.publishSecurityEvent(ctx, SecurityEvent{
		Type:      entity.SecurityEventEnabled,
		AccountID: clm.AccountID,
		Email:     clm.Label,
		Remaining: len(hashes),
	})

	return &EnableEnrollmentOutput{EnabledAt: now}, nil
}
