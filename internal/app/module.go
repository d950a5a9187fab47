package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/twostep/internal/identity"
	"github.com/shandysiswandi/twostep/internal/notification"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.identity.enabled") {
		if err := identity.New(identity.Dependency{
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			Bcrypt:     a.bcrypt,
			HMAC:       a.hmac,
			Argon2ID:   a.argon2id,
			Vault:      a.vault,
			Clock:      a.clock,
			Validator:  a.validator,
			Router:     a.router,
			Totp:       a.totp,
			DBConn:     a.dbConn,
			CacheConn:  a.cacheConn,
			Messaging:  a.messaging,
			Goroutine:  a.goroutine,
			JWT:        a.jwt,
			Enforcer:   a.casbin,
		}); err != nil {
			slog.Error("failed to init module identity", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		if err := notification.New(notification.Dependency{
			Ctx:        a.ctx,
			Messaging:  a.messaging,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Clock:      a.clock,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
			Mail:       a.mail,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}
