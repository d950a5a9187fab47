package app

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/twostep/internal/pkg/clock"
	"github.com/shandysiswandi/twostep/internal/pkg/config"
	"github.com/shandysiswandi/twostep/internal/pkg/goroutine"
	"github.com/shandysiswandi/twostep/internal/pkg/hash"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/jwt"
	"github.com/shandysiswandi/twostep/internal/pkg/mail"
	"github.com/shandysiswandi/twostep/internal/pkg/messaging"
	"github.com/shandysiswandi/twostep/internal/pkg/migrate"
	"github.com/shandysiswandi/twostep/internal/pkg/otp"
	"github.com/shandysiswandi/twostep/internal/pkg/pgxcasbin"
	"github.com/shandysiswandi/twostep/internal/pkg/router"
	"github.com/shandysiswandi/twostep/internal/pkg/uid"
	"github.com/shandysiswandi/twostep/internal/pkg/validator"
	"github.com/shandysiswandi/twostep/internal/pkg/vault"
	"github.com/shandysiswandi/twostep/migrations"
)

const roleAdmin = "role:admin"

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path, defaults)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         a.config.GetString("instrument.log_level"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.argon2id = hash.NewArgon2id(a.config.GetString("hash.argon2id.pepper"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake()
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	a.totp = otp.NewTOTP(
		a.config.GetString("modules.identity.totp.issuer"),
		a.config.GetUint("modules.identity.totp.period"),
		a.config.GetUint("modules.identity.totp.secret_size"),
		libOTP.Digits(a.config.GetInt("modules.identity.totp.digits")),
	)
}

// initVault builds the key ring from mfa.keys, "version:base64key" pairs.
// Old versions stay listed so secrets sealed under them still decrypt.
func (a *App) initVault() {
	raw := a.config.GetMap("mfa.keys")
	entries := make(map[string][]byte, len(raw))
	for version, encoded := range raw {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			slog.Error("failed to decode mfa key", "version", version, "error", err)
			os.Exit(1)
		}
		entries[version] = key
	}

	active := a.config.GetUint("mfa.active_key_version")
	ring, err := vault.ParseKeyRing(uint16(active), entries) //nolint:gosec // versions are small
	if err != nil {
		slog.Error("failed to init mfa key ring", "active_version", active, "error", err)
		os.Exit(1)
	}

	a.vault = vault.NewAESGCM(ring)
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL: map[jwt.TokenType]time.Duration{
			jwt.TypeSession:  a.config.GetMinute("jwt.session_ttl_minutes"),
			jwt.TypeTokenKey: a.config.GetMinute("jwt.token_key_ttl_minutes"),
		},
		Clock: a.clock,
		UUID:  a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initMigration() {
	if !a.config.GetBool("database.migrate") {
		return
	}

	if err := migrate.Up(a.ctx, a.config.GetString("database.url"), migrations.FS); err != nil {
		slog.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initMail() {
	if !a.config.GetBool("smtp.enabled") {
		a.mail = mail.NewLog()
		return
	}

	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("smtp.host"),
		Port:     a.config.GetInt("smtp.port"),
		Username: a.config.GetString("smtp.username"),
		Password: a.config.GetString("smtp.password"),
		From:     a.config.GetString("smtp.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

func (a *App) initMessaging() {
	if !a.config.GetBool("messaging.enabled") {
		slog.Warn("messaging disabled, security events stay in process")
		a.messaging = messaging.NewMemory()
		return
	}

	client, err := messaging.NewNATS(messaging.NATSConfig{
		URL: a.config.GetString("messaging.nats.url"),
		Options: []nats.Option{
			nats.Name(a.config.GetString("messaging.nats.name")),
			nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
			nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
			nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
			nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initCasbin() {
	const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		slog.Error("failed to create model casbin", "error", err)
		os.Exit(1)
	}

	adapter := pgxcasbin.NewAdapter(a.dbConn, pgxcasbin.WithTableName("identity_casbin_rules"))

	e, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		slog.Error("failed to init casbin", "error", err)
		os.Exit(1)
	}
	e.EnableAutoSave(true)

	for _, id := range a.config.GetArray("modules.identity.admin_account_ids") {
		if _, err := strconv.ParseInt(id, 10, 64); err != nil {
			slog.Error("invalid admin account id", "account_id", id, "error", err)
			os.Exit(1)
		}
		if _, err := e.AddGroupingPolicy(id, roleAdmin); err != nil {
			slog.Error("failed to grant admin role", "account_id", id, "error", err)
			os.Exit(1)
		}
	}

	slog.Info("casbin policies loaded", "rules", adapter.Loaded())
	a.casbin = e
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})
	a.router.GET("/health", a.health)

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
