package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/jwt"
)

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// LoginOutput carries either a session credential or, when two-step
// verification is enabled, a token key for the second step. Never both.
type LoginOutput struct {
	TwoFactorRequired bool
	TokenKey          string
	AccessToken       string
	ExpiresAt         time.Time
}

// Login is the primary-factor step of the handoff.
func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	in.Email = strings.TrimSpace(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.repoDB.GetAccountByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "login for unknown email")
		return nil, errorOf(entity.ErrInvalidCredentials)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by email", "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.password.Verify(acc.PasswordHash, in.Password) {
		slog.WarnContext(ctx, "login with wrong password", "account_id", acc.ID)
		return nil, errorOf(entity.ErrInvalidCredentials)
	}

	return s.issueTokenKeyOrSession(ctx, acc)
}

// IssueTokenKeyOrSession is called once the password is verified. Accounts
// without two-step verification get a session straight away; the rest get a
// short-lived token key that only CompleteLogin accepts.
func (s *Usecase) IssueTokenKeyOrSession(ctx context.Context, accountID int64) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "IssueTokenKeyOrSession")
	defer span.End()

	acc, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return s.issueTokenKeyOrSession(ctx, acc)
}

func (s *Usecase) issueTokenKeyOrSession(ctx context.Context, acc *entity.Account) (*LoginOutput, error) {
	enrollment, err := s.getEnrollment(ctx, acc.ID)
	if err != nil {
		return nil, err
	}

	if !enrollment.Usable() {
		tok, err := s.issueSession(ctx, acc.ID, acc.Label())
		if err != nil {
			return nil, err
		}
		return &LoginOutput{AccessToken: tok.Value, ExpiresAt: tok.ExpiresAt}, nil
	}

	tok, err := s.jwt.Issue(jwt.TypeTokenKey, acc.ID, acc.Label())
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue token key", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		TwoFactorRequired: true,
		TokenKey:          tok.Value,
		ExpiresAt:         tok.ExpiresAt,
	}, nil
}

func (s *Usecase) issueSession(ctx context.Context, accountID int64, label string) (jwt.Token, error) {
	tok, err := s.jwt.Issue(jwt.TypeSession, accountID, label)
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue session token", "account_id", accountID, "error", err)
		return jwt.Token{}, goerror.NewServer(err)
	}
	return tok, nil
}
