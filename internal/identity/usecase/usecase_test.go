package usecase

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	pquernaotp "github.com/pquerna/otp"
	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/identity/outbound/cache"
	"github.com/shandysiswandi/twostep/internal/pkg/clock"
	"github.com/shandysiswandi/twostep/internal/pkg/config"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/goroutine"
	"github.com/shandysiswandi/twostep/internal/pkg/hash"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/jwt"
	"github.com/shandysiswandi/twostep/internal/pkg/otp"
	"github.com/shandysiswandi/twostep/internal/pkg/ratelimit"
	"github.com/shandysiswandi/twostep/internal/pkg/validator"
	"github.com/shandysiswandi/twostep/internal/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	alicePassword = "correct-horse-battery"
	aliceID       = int64(42)
	bobID         = int64(43)
)

var t0 = time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)

type fakeDB struct {
	mu           sync.Mutex
	accounts     map[int64]entity.Account
	enrollments  map[int64]entity.TotpEnrollment
	consumeCalls int
}

func (f *fakeDB) GetAccountByID(_ context.Context, id int64) (*entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &acc, nil
}

func (f *fakeDB) GetAccountByEmail(_ context.Context, email string) (*entity.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acc := range f.accounts {
		if strings.EqualFold(acc.Email, email) {
			return &acc, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetEnrollment(_ context.Context, accountID int64) (*entity.TotpEnrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[accountID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	e.BackupCodesHashed = slices.Clone(e.BackupCodesHashed)
	return &e, nil
}

func (f *fakeDB) UpsertEnrollment(_ context.Context, e entity.TotpEnrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.enrollments[e.AccountID]; ok {
		e.ID = old.ID
	}
	f.enrollments[e.AccountID] = e
	return nil
}

func (f *fakeDB) DisableEnrollment(_ context.Context, accountID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[accountID]
	if !ok || !e.Enabled {
		return false, nil
	}
	e.Enabled, e.EnabledAt, e.SecretEncrypted, e.BackupCodesHashed = false, nil, nil, nil
	f.enrollments[accountID] = e
	return true, nil
}

func (f *fakeDB) ReplaceBackupCodes(_ context.Context, accountID int64, hashes []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.enrollments[accountID]
	if !ok || !e.Enabled {
		return goerror.ErrNotFound
	}
	e.BackupCodesHashed = slices.Clone(hashes)
	f.enrollments[accountID] = e
	return nil
}

func (f *fakeDB) ConsumeBackupCode(_ context.Context, accountID int64, match func([]string) int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumeCalls++
	e, ok := f.enrollments[accountID]
	if !ok || !e.Enabled {
		return 0, false, goerror.ErrNotFound
	}
	idx := match(e.BackupCodesHashed)
	if idx < 0 {
		return len(e.BackupCodesHashed), false, nil
	}
	e.BackupCodesHashed = slices.Delete(slices.Clone(e.BackupCodesHashed), idx, idx+1)
	f.enrollments[accountID] = e
	return len(e.BackupCodesHashed), true, nil
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []SecurityEvent
}

func (f *fakeDB) consumed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.consumeCalls
}

func (f *fakeMessaging) PublishSecurityEvent(_ context.Context, msg SecurityEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return nil
}

func (f *fakeMessaging) types() []entity.SecurityEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]entity.SecurityEventType, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeEnforcer struct {
	allowed map[string]bool
}

func (f fakeEnforcer) Enforce(rvals ...any) (bool, error) {
	sub, _ := rvals[0].(string)
	return f.allowed[sub] && rvals[1] == objectTwoStep && rvals[2] == actionReset, nil
}

type seqNumber struct {
	mu sync.Mutex
	n  int64
}

func (s *seqNumber) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return 1000 + s.n
}

type seqString struct {
	mu sync.Mutex
	n  int
}

func (s *seqString) Generate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("jti-%d", s.n)
}

type harness struct {
	uc    *Usecase
	db    *fakeDB
	cache *cache.Memory
	mq    *fakeMessaging
	gm    *goroutine.Manager
	clk   *clock.Fixed
	totp  *otp.TOTP
	jwt   *jwt.Symmetric
	vault *vault.AESGCM
}

type harnessOption func(cfg *harnessConfig)

type harnessConfig struct {
	replayGuard bool
}

func withReplayGuard() harnessOption {
	return func(c *harnessConfig) { c.replayGuard = true }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	hc := harnessConfig{}
	for _, opt := range opts {
		opt(&hc)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(fmt.Sprintf(`
modules:
  identity:
    totp:
      period: 30
      window: 1
    backup_codes:
      count: 10
      length: 8
    pending:
      ttl_minutes: 10
    replay_guard: %t
`, hc.replayGuard)), nil)
	require.NoError(t, err)

	val, err := validator.NewV10Validator()
	require.NoError(t, err)

	pwHash, err := bcrypt.GenerateFromPassword([]byte(alicePassword), bcrypt.MinCost)
	require.NoError(t, err)

	ring, err := vault.NewKeyRing(1, map[uint16][]byte{1: []byte(strings.Repeat("v", 32))})
	require.NoError(t, err)

	clk := clock.NewFixed(t0)
	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(strings.Repeat("s", 64)),
		Issuer:    "twostep",
		Audiences: []string{"twostep-api"},
		TTL: map[jwt.TokenType]time.Duration{
			jwt.TypeSession:  time.Hour,
			jwt.TypeTokenKey: 5 * time.Minute,
		},
		Clock: clk,
		UUID:  &seqString{},
	})
	require.NoError(t, err)

	h := &harness{
		db: &fakeDB{
			accounts: map[int64]entity.Account{
				aliceID: {ID: aliceID, Email: "alice@example.com", DisplayName: "Alice", PasswordHash: string(pwHash)},
				bobID:   {ID: bobID, Email: "bob@example.com", DisplayName: "Bob", PasswordHash: string(pwHash)},
			},
			enrollments: map[int64]entity.TotpEnrollment{},
		},
		cache: cache.NewMemory(clk.Now, instrument.NewNoop()),
		mq:    &fakeMessaging{},
		gm:    goroutine.NewManager(8),
		clk:   clk,
		totp:  otp.NewTOTP("TwoStep", 30, 20, pquernaotp.DigitsSix),
		jwt:   signer,
		vault: vault.NewAESGCM(ring),
	}

	h.uc = New(Dependency{
		RepoDB:        h.db,
		RepoCache:     h.cache,
		RepoMessaging: h.mq,
		Validator:     val,
		Config:        cfg,
		Limiter:       ratelimit.NewMemory(clk.Now, ratelimit.Policy{Limit: 5, Window: 15 * time.Minute}),
		Password:      hash.NewBcrypt(bcrypt.MinCost, ""),
		HMAC:          hash.NewHMACSHA256("replay"),
		BackupHasher:  vault.NewCodeHasher(hash.NewBcrypt(bcrypt.MinCost, "")),
		Vault:         h.vault,
		Totp:          h.totp,
		BackupCodes:   otp.NewBackupCodes(),
		UID:           &seqNumber{},
		Clock:         clk,
		JWT:           signer,
		Instrument:    instrument.NewNoop(),
		Enforcer:      fakeEnforcer{allowed: map[string]bool{"43": true}},
		Goroutine:     h.gm,
	})

	return h
}

func sessionCtx(accountID int64, email string) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{Type: jwt.TypeSession, AccountID: accountID, Label: email})
}

func aliceCtx() context.Context {
	return sessionCtx(aliceID, "alice@example.com")
}

func (h *harness) code(t *testing.T, secret string) string {
	t.Helper()
	c, err := h.totp.GenerateCode(secret, h.clk.Now())
	require.NoError(t, err)
	return c
}

// wrongCode returns a six digit code outside the accepted drift window.
func (h *harness) wrongCode(t *testing.T, secret string) string {
	t.Helper()
	valid := map[string]bool{}
	for _, d := range []time.Duration{-30 * time.Second, 0, 30 * time.Second} {
		c, err := h.totp.GenerateCode(secret, h.clk.Now().Add(d))
		require.NoError(t, err)
		valid[c] = true
	}
	for i := 0; ; i++ {
		c := fmt.Sprintf("%06d", i)
		if !valid[c] {
			return c
		}
	}
}

// enable runs begin and enable for alice and returns the secret and backup codes.
func (h *harness) enable(t *testing.T) (string, []string) {
	t.Helper()
	begin, err := h.uc.BeginEnrollment(aliceCtx())
	require.NoError(t, err)

	_, err = h.uc.EnableEnrollment(aliceCtx(), EnableEnrollmentInput{Code: h.code(t, begin.Secret)})
	require.NoError(t, err)
	return begin.Secret, begin.BackupCodes
}

func (h *harness) tokenKey(t *testing.T) string {
	t.Helper()
	out, err := h.uc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: alicePassword})
	require.NoError(t, err)
	require.True(t, out.TwoFactorRequired)
	require.Empty(t, out.AccessToken)
	return out.TokenKey
}

func assertKind(t *testing.T, err error, kind error, status int) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, kind)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, status, gerr.StatusCode())
}
