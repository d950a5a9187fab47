package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/jwt"
	"github.com/shandysiswandi/twostep/internal/pkg/otp"
	"github.com/shandysiswandi/twostep/internal/pkg/vault"
)

type CompleteLoginInput struct {
	TokenKey string `json:"token_key" validate:"required"`
	Code     string `json:"code" validate:"required,factorcode"`
}

type CompleteLoginOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	// Factor is for logging and metrics only; responses must not expose it.
	Factor entity.LoginFactor
}

// CompleteLogin exchanges a token key and a TOTP or backup code for a session.
// A matched backup code is removed for good; a TOTP match changes no stored
// state. Both failures look the same to the caller.
func (s *Usecase) CompleteLogin(ctx context.Context, in CompleteLoginInput) (*CompleteLoginOutput, error) {
	ctx, span := s.startSpan(ctx, "CompleteLogin")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	clm, err := s.verifyTokenKey(ctx, in.TokenKey)
	if err != nil {
		return nil, err
	}

	if err := s.throttle(ctx, clm.AccountID); err != nil {
		return nil, err
	}

	enrollment, err := s.getEnrollment(ctx, clm.AccountID)
	if err != nil {
		return nil, err
	}
	if !enrollment.Usable() {
		slog.WarnContext(ctx, "complete login without enrollment", "account_id", clm.AccountID)
		return nil, errorOf(entity.ErrNotEnrolled)
	}

	secret, err := s.vault.Decrypt(enrollment.SecretEncrypted, vault.Scope{
		AccountID: clm.AccountID,
		Purpose:   vault.PurposeTOTPSecret,
	})
	if err != nil {
		slog.ErrorContext(ctx, "stored totp secret failed to decrypt", "account_id", clm.AccountID, "enrollment_id", enrollment.ID, "error", err)
		return nil, errorOf(fmt.Errorf("%w: %w", entity.ErrDecryption, err))
	}

	factor, err := s.matchFactor(ctx, clm, string(secret), in.Code)
	if err != nil {
		return nil, err
	}

	tok, err := s.issueSession(ctx, clm.AccountID, clm.Label)
	if err != nil {
		return nil, err
	}

	s.resetThrottle(ctx, clm.AccountID)
	slog.InfoContext(ctx, "two-step login completed", "account_id", clm.AccountID, "factor", factor.String())

	return &CompleteLoginOutput{
		AccessToken: tok.Value,
		ExpiresAt:   tok.ExpiresAt,
		Factor:      factor,
	}, nil
}

func (s *Usecase) verifyTokenKey(ctx context.Context, token string) (*jwt.Claims, error) {
	clm, err := s.jwt.Verify(token, jwt.TypeTokenKey)
	if errors.Is(err, jwt.ErrTokenExpired) {
		slog.WarnContext(ctx, "token key expired")
		return nil, errorOf(entity.ErrTokenExpired)
	}
	if err != nil {
		slog.WarnContext(ctx, "invalid token key", "error", err)
		return nil, errorOf(entity.ErrInvalidTokenKey)
	}
	return &clm, nil
}

// matchFactor tries the live TOTP first and then the backup codes in stored
// order.
func (s *Usecase) matchFactor(ctx context.Context, clm *jwt.Claims, secret, code string) (entity.LoginFactor, error) {
	if s.totp.Verify(code, secret, s.clock.Now(), s.totpWindow()) {
		if err := s.guardReplay(ctx, clm.AccountID, code); err != nil {
			return entity.LoginFactorNone, err
		}
		return entity.LoginFactorTOTP, nil
	}

	// a mistyped TOTP never reaches the locked bcrypt scan
	if _, length := s.backupCodeShape(); !otp.IsBackupCode(otp.NormalizeBackupCode(code), length) {
		slog.WarnContext(ctx, "second factor did not match", "account_id", clm.AccountID)
		return entity.LoginFactorNone, errorOf(entity.ErrInvalidCode)
	}

	remaining, matched, err := s.repoDB.ConsumeBackupCode(ctx, clm.AccountID, func(hashes []string) int {
		return s.backupHasher.Match(code, hashes)
	})
	if errors.Is(err, goerror.ErrNotFound) {
		// disabled between the enrollment read and the lock
		slog.WarnContext(ctx, "enrollment vanished during backup code use", "account_id", clm.AccountID)
		return entity.LoginFactorNone, errorOf(entity.ErrInvalidCode)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo consume backup code", "account_id", clm.AccountID, "error", err)
		return entity.LoginFactorNone, goerror.NewServer(err)
	}

	if !matched {
		slog.WarnContext(ctx, "second factor did not match", "account_id", clm.AccountID)
		return entity.LoginFactorNone, errorOf(entity.ErrInvalidCode)
	}

	s.publishSecurityEvent(ctx, SecurityEvent{
		Type:      entity.SecurityEventBackupCodeUsed,
		AccountID: clm.AccountID,
		Email:     clm.Label,
		ActorID:   clm.AccountID,
		Remaining: remaining,
	})

	return entity.LoginFactorBackupCode, nil
}

// guardReplay rejects a TOTP code already accepted for the account inside its
// validity window.
func (s *Usecase) guardReplay(ctx context.Context, accountID int64, code string) error {
	if !s.cfg.GetBool("modules.identity.replay_guard") {
		return nil
	}

	ttl := s.totpPeriod() * time.Duration(2*s.totpWindow()+1)

	key, err := s.hmac.Hash(strconv.FormatInt(accountID, 10) + ":" + code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash replay key", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	fresh, err := s.repoCache.MarkCodeUsed(ctx, string(key), ttl)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo mark code used", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	if !fresh {
		slog.WarnContext(ctx, "totp code replayed", "account_id", accountID)
		return errorOf(entity.ErrInvalidCode)
	}

	return nil
}
