package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

type RegenerateBackupCodesInput struct {
	Password string `json:"password" validate:"required,password"`
}

type RegenerateBackupCodesOutput struct {
	BackupCodes []string
}

// RegenerateBackupCodes replaces every stored backup code with a fresh set.
// The secret and enabled state are untouched.
func (s *Usecase) RegenerateBackupCodes(ctx context.Context, in RegenerateBackupCodesInput) (*RegenerateBackupCodesOutput, error) {
	ctx, span := s.startSpan(ctx, "RegenerateBackupCodes")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	acc, err := s.verifyPassword(ctx, clm.AccountID, in.Password)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.getEnrollment(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	if !enrollment.Usable() {
		slog.WarnContext(ctx, "regenerate backup codes without enrollment", "account_id", acc.ID)
		return nil, errorOf(entity.ErrNotEnrolled)
	}

	count, length := s.backupCodeShape()
	codes, err := s.backupCodes.Generate(count, length)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate backup codes", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	hashes, err := s.backupHasher.HashAll(codes)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash backup codes", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	err = s.repoDB.ReplaceBackupCodes(ctx, acc.ID, hashes)
	if errors.Is(err, goerror.ErrNotFound) {
		// disabled between the read and the write
		slog.WarnContext(ctx, "enrollment disabled while regenerating backup codes", "account_id", acc.ID)
		return nil, errorOf(entity.ErrNotEnrolled)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo replace backup codes", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishSecurityEvent(ctx, SecurityEvent{
		Type:      entity.SecurityEventBackupCodesRegenerated,
		AccountID: acc.ID,
		Email:     acc.Email,
		ActorID:   acc.ID,
		Remaining: len(codes),
	})

	return &RegenerateBackupCodesOutput{BackupCodes: codes}, nil
}
