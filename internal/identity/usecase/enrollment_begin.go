package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

type BeginEnrollmentOutput struct {
	Secret          string
	ProvisioningURI string
	QRCode          string
	BackupCodes     []string
}

// BeginEnrollment generates a fresh secret and backup codes for the signed-in
// account and keeps them as the only pending enrollment. This is the one time
// the backup codes are returned in plaintext.
func (s *Usecase) BeginEnrollment(ctx context.Context) (*BeginEnrollmentOutput, error) {
	ctx, span := s.startSpan(ctx, "BeginEnrollment")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	acc, err := s.getAccount(ctx, clm.AccountID)
	if err != nil {
		return nil, err
	}

	secret, uri, err := s.totp.Generate(acc.Label())
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate totp secret", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	count, length := s.backupCodeShape()
	codes, err := s.backupCodes.Generate(count, length)
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate backup codes", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	pending := entity.PendingEnrollment{
		AccountID:   acc.ID,
		Secret:      secret,
		BackupCodes: codes,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repoCache.SetPending(ctx, pending, s.pendingTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to repo set pending enrollment", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	out := &BeginEnrollmentOutput{
		Secret:          secret,
		ProvisioningURI: uri,
		BackupCodes:     codes,
	}

	if s.qrcode != nil {
		qr, err := s.qrcode.DataURL(uri)
		if err != nil {
			// the URI is still usable for manual entry
			slog.WarnContext(ctx, "failed to render provisioning qr code", "account_id", acc.ID, "error", err)
		}
		out.QRCode = qr
	}

	return out, nil
}
