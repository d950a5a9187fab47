package app

import (
	"context"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/twostep/internal/pkg/clock"
	"github.com/shandysiswandi/twostep/internal/pkg/config"
	"github.com/shandysiswandi/twostep/internal/pkg/goroutine"
	"github.com/shandysiswandi/twostep/internal/pkg/hash"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/jwt"
	"github.com/shandysiswandi/twostep/internal/pkg/mail"
	"github.com/shandysiswandi/twostep/internal/pkg/messaging"
	"github.com/shandysiswandi/twostep/internal/pkg/otp"
	"github.com/shandysiswandi/twostep/internal/pkg/router"
	"github.com/shandysiswandi/twostep/internal/pkg/uid"
	"github.com/shandysiswandi/twostep/internal/pkg/validator"
	"github.com/shandysiswandi/twostep/internal/pkg/vault"
	"go.uber.org/atomic"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	ready  *atomic.Bool

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	argon2id  hash.Hash
	bcrypt    hash.Hash
	uid       uid.NumberID
	uuid      uid.StringID
	totp      otp.OTP
	jwt       jwt.JWT
	vault     vault.Encryptor

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	mail      mail.Mail
	messaging messaging.Messaging
	casbin    *casbin.Enforcer

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		ready:  atomic.NewBool(false),
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initVault()
	app.initJWT()
	app.initDatabase()
	app.initMigration()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initCasbin()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
