package usecase

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/clock"
	"github.com/shandysiswandi/twostep/internal/pkg/config"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/goroutine"
	"github.com/shandysiswandi/twostep/internal/pkg/hash"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/jwt"
	"github.com/shandysiswandi/twostep/internal/pkg/otp"
	"github.com/shandysiswandi/twostep/internal/pkg/qrcode"
	"github.com/shandysiswandi/twostep/internal/pkg/ratelimit"
	"github.com/shandysiswandi/twostep/internal/pkg/uid"
	"github.com/shandysiswandi/twostep/internal/pkg/validator"
	"github.com/shandysiswandi/twostep/internal/pkg/vault"
	"go.opentelemetry.io/otel/trace"
)

// SecurityEvent is handed to the messaging repository after a second-factor
// change. It never carries secrets or codes.
type SecurityEvent struct {
	Type       entity.SecurityEventType
	AccountID  int64
	Email      string
	ActorID    int64
	Remaining  int
	OccurredAt time.Time
}

type repoMessaging interface {
	PublishSecurityEvent(ctx context.Context, msg SecurityEvent) error
}

type repoDB interface {
	GetAccountByID(ctx context.Context, id int64) (*entity.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetEnrollment(ctx context.Context, accountID int64) (*entity.TotpEnrollment, error)

	UpsertEnrollment(ctx context.Context, e entity.TotpEnrollment) error
	DisableEnrollment(ctx context.Context, accountID int64) (bool, error)
	ReplaceBackupCodes(ctx context.Context, accountID int64, hashes []string) error
	ConsumeBackupCode(ctx context.Context, accountID int64, match func(hashes []string) int) (remaining int, matched bool, err error)
}

type repoCache interface {
	GetPending(ctx context.Context, accountID int64) (*entity.PendingEnrollment, error)
	SetPending(ctx context.Context, p entity.PendingEnrollment, ttl time.Duration) error
	DeletePending(ctx context.Context, accountID int64) error
	// MarkCodeUsed records key for ttl and reports whether it was not seen before.
	MarkCodeUsed(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type codeHasher interface {
	HashAll(codes []string) ([]string, error)
	Match(code string, hashes []string) int
}

type enforcer interface {
	Enforce(rvals ...any) (bool, error)
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	limiter       ratelimit.Limiter
	password      hash.Hash
	hmac          hash.Hash
	backupHasher  codeHasher
	vault         vault.Encryptor
	totp          otp.OTP
	backupCodes   otp.BackupCodeGenerator
	qrcode        qrcode.Renderer
	uid           uid.NumberID
	clock         clock.Clocker
	jwt           jwt.JWT
	ins           instrument.Instrumentation
	enforcer      enforcer
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	Limiter       ratelimit.Limiter
	Password      hash.Hash
	HMAC          hash.Hash
	BackupHasher  codeHasher
	Vault         vault.Encryptor
	Totp          otp.OTP
	BackupCodes   otp.BackupCodeGenerator
	// QRCode may be nil, in which case no image is rendered.
	QRCode     qrcode.Renderer
	UID        uid.NumberID
	Clock      clock.Clocker
	JWT        jwt.JWT
	Instrument instrument.Instrumentation
	Enforcer   enforcer
	Goroutine  *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		limiter:       dep.Limiter,
		password:      dep.Password,
		hmac:          dep.HMAC,
		backupHasher:  dep.BackupHasher,
		vault:         dep.Vault,
		totp:          dep.Totp,
		backupCodes:   dep.BackupCodes,
		qrcode:        dep.QRCode,
		uid:           dep.UID,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		ins:           dep.Instrument,
		enforcer:      dep.Enforcer,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil || clm.Type != jwt.TypeSession {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}
	return clm, nil
}

func (s *Usecase) authenticatedAndAuthorized(ctx context.Context, obj, act string) (*jwt.Claims, error) {
	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	sub := strconv.FormatInt(clm.AccountID, 10)
	ok, err := s.enforcer.Enforce(sub, obj, act)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "account_id", clm.AccountID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !ok {
		slog.WarnContext(ctx, "account not allowed", "account_id", clm.AccountID, "object", obj, "action", act)
		return nil, errorOf(entity.ErrForbidden)
	}

	return clm, nil
}

// throttle counts one verification attempt for the account.
func (s *Usecase) throttle(ctx context.Context, accountID int64) error {
	d, err := s.limiter.Allow(ctx, throttleKey(accountID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to count verification attempt", "account_id", accountID, "error", err)
		return goerror.NewServer(err)
	}

	if !d.Allowed {
		slog.WarnContext(ctx, "too many verification attempts", "account_id", accountID, "retry_after", d.RetryAfter.String())
		return errorOf(entity.ErrTooManyAttempts)
	}

	return nil
}

func (s *Usecase) resetThrottle(ctx context.Context, accountID int64) {
	if err := s.limiter.Reset(ctx, throttleKey(accountID)); err != nil {
		slog.WarnContext(ctx, "failed to reset verification attempts", "account_id", accountID, "error", err)
	}
}

func throttleKey(accountID int64) string {
	return "2fa:" + strconv.FormatInt(accountID, 10)
}

// verifyPassword is the primary-credential check run before disable and
// regenerate.
func (s *Usecase) verifyPassword(ctx context.Context, accountID int64, password string) (*entity.Account, error) {
	acc, err := s.getAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !s.password.Verify(acc.PasswordHash, password) {
		slog.WarnContext(ctx, "password re-authentication failed", "account_id", accountID)
		return nil, errorOf(entity.ErrInvalidPassword)
	}

	return acc, nil
}

func (s *Usecase) publishSecurityEvent(ctx context.Context, ev SecurityEvent) {
	ev.OccurredAt = s.clock.Now()

	s.goroutine.Go(context.WithoutCancel(ctx), func(ctx context.Context) error {
		if err := s.repoMessaging.PublishSecurityEvent(ctx, ev); err != nil {
			slog.WarnContext(ctx, "failed to publish security event", "account_id", ev.AccountID, "event", string(ev.Type), "error", err)
			return err
		}
		return nil
	})
}

func (s *Usecase) totpWindow() uint {
	return s.cfg.GetUint("modules.identity.totp.window")
}

func (s *Usecase) totpPeriod() time.Duration {
	period := s.cfg.GetUint("modules.identity.totp.period")
	if period == 0 {
		period = otp.DefaultPeriod
	}
	return time.Duration(period) * time.Second
}

func (s *Usecase) pendingTTL() time.Duration {
	return s.cfg.GetMinute("modules.identity.pending.ttl_minutes")
}

func (s *Usecase) backupCodeShape() (count, length int) {
	count = s.cfg.GetInt("modules.identity.backup_codes.count")
	if count <= 0 {
		count = otp.DefaultBackupCodeCount
	}
	length = s.cfg.GetInt("modules.identity.backup_codes.length")
	if length <= 0 {
		length = otp.DefaultBackupCodeLength
	}
	return count, length
}
