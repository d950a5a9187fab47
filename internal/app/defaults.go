package app

// defaults are registered before config.yaml is read so a partial file still
// yields a working service.
var defaults = map[string]any{
	"app.name":                                    "TwoStep",
	"app.tz":                                      "UTC",
	"app.server.max_goroutine":                    256,
	"app.server.http.address":                     ":8080",
	"app.server.http.read_timeout_seconds":        10,
	"app.server.http.read_header_timeout_seconds": 5,
	"app.server.http.write_timeout_seconds":       15,
	"app.server.http.idle_timeout_seconds":        60,

	"instrument.enabled":                 false,
	"instrument.service_name":            "twostep",
	"instrument.trace_sample_ratio":      1.0,
	"instrument.metric_interval_seconds": 15,
	"instrument.log_level":               "info",

	"database.migrate":                          true,
	"database.pool.max_conns":                   10,
	"database.pool.min_conns":                   1,
	"database.pool.max_conn_lifetime_seconds":   3600,
	"database.pool.max_conn_idle_seconds":       300,
	"database.pool.health_check_period_seconds": 30,
	"hash.bcrypt.cost":                          12,
	"jwt.issuer":                                "twostep",
	"jwt.session_ttl_minutes":                   60,
	"jwt.token_key_ttl_minutes":                 5,
	"mfa.active_key_version":                    1,
	"messaging.enabled":                         false,
	"messaging.nats.name":                       "twostep",
	"messaging.nats.max_reconnects":             60,
	"messaging.nats.timeout_seconds":            5,
	"messaging.nats.reconnect_wait_seconds":     2,
	"smtp.enabled":                              false,
	"modules.identity.enabled":                  true,
	"modules.identity.totp.issuer":              "TwoStep",
	"modules.identity.totp.period":              30,
	"modules.identity.totp.digits":              6,
	"modules.identity.totp.window":              1,
	"modules.identity.totp.secret_size":         20,
	"modules.identity.backup_codes.count":       10,
	"modules.identity.backup_codes.length":      8,
	"modules.identity.backup_codes.hasher":      "bcrypt",
	"modules.identity.pending.driver":           "redis",
	"modules.identity.pending.ttl_minutes":      10,
	"modules.identity.throttle.max_attempts":    5,
	"modules.identity.throttle.window_minutes":  15,
	"modules.identity.replay_guard":             true,
	"modules.identity.qr_size":                  256,
	"modules.notification.enabled":              true,
	"modules.notification.concurrency":          4,
	"modules.notification.low_backup_codes":     3,
	"modules.notification.consumer_names":       []string{"identity_security_event_notification"},
}
