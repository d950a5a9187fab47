package identity

import (
	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/twostep/internal/identity/inbound"
	"github.com/shandysiswandi/twostep/internal/identity/outbound/cache"
	"github.com/shandysiswandi/twostep/internal/identity/outbound/db"
	"github.com/shandysiswandi/twostep/internal/identity/outbound/mq"
	"github.com/shandysiswandi/twostep/internal/identity/usecase"
	"github.com/shandysiswandi/twostep/internal/pkg/clock"
	"github.com/shandysiswandi/twostep/internal/pkg/config"
	"github.com/shandysiswandi/twostep/internal/pkg/goroutine"
	"github.com/shandysiswandi/twostep/internal/pkg/hash"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/jwt"
	"github.com/shandysiswandi/twostep/internal/pkg/messaging"
	"github.com/shandysiswandi/twostep/internal/pkg/otp"
	"github.com/shandysiswandi/twostep/internal/pkg/qrcode"
	"github.com/shandysiswandi/twostep/internal/pkg/ratelimit"
	"github.com/shandysiswandi/twostep/internal/pkg/router"
	"github.com/shandysiswandi/twostep/internal/pkg/uid"
	"github.com/shandysiswandi/twostep/internal/pkg/validator"
	"github.com/shandysiswandi/twostep/internal/pkg/vault"
)

const keyPrefixAttempts = "identity:2fa:attempts:"

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Enforcer   *casbin.Enforcer           `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	Argon2ID   hash.Hash                  `validate:"required"`
	Vault      vault.Encryptor            `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	ucDep := usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		Config:        dep.Config,
		Password:      dep.Bcrypt,
		HMAC:          dep.HMAC,
		BackupHasher:  vault.NewCodeHasher(dep.Bcrypt),
		Vault:         dep.Vault,
		Totp:          dep.Totp,
		BackupCodes:   otp.NewBackupCodes(),
		UID:           dep.UID,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Instrument:    dep.Instrument,
		Enforcer:      dep.Enforcer,
		Goroutine:     dep.Goroutine,
	}

	policy := ratelimit.Policy{
		Limit:  dep.Config.GetInt("modules.identity.throttle.max_attempts"),
		Window: dep.Config.GetMinute("modules.identity.throttle.window_minutes"),
	}
	if dep.Config.GetString("modules.identity.pending.driver") == "memory" {
		ucDep.RepoCache = cache.NewMemory(dep.Clock.Now, dep.Instrument)
		ucDep.Limiter = ratelimit.NewMemory(dep.Clock.Now, policy)
	} else {
		ucDep.RepoCache = cache.NewRedis(dep.CacheConn, dep.Instrument)
		ucDep.Limiter = ratelimit.NewRedis(dep.CacheConn, keyPrefixAttempts, policy)
	}

	if dep.Config.GetString("modules.identity.backup_codes.hasher") == "argon2id" {
		ucDep.BackupHasher = vault.NewCodeHasher(dep.Argon2ID)
	}

	// a nil *PNG must not reach the interface
	if size := dep.Config.GetInt("modules.identity.qr_size"); size > 0 {
		ucDep.QRCode = qrcode.NewPNG(size)
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
