package usecase

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_WithoutTwoStep(t *testing.T) {
	h := newHarness(t)

	out, err := h.uc.Login(context.Background(), LoginInput{Email: " Alice@Example.com ", Password: alicePassword})
	require.NoError(t, err)
	assert.False(t, out.TwoFactorRequired)
	assert.Empty(t, out.TokenKey)
	require.NotEmpty(t, out.AccessToken)

	clm, err := h.jwt.Verify(out.AccessToken, jwt.TypeSession)
	require.NoError(t, err)
	assert.Equal(t, aliceID, clm.AccountID)
}

func TestLogin_BadCredentials(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong-password"})
	assertKind(t, err, entity.ErrInvalidCredentials, http.StatusUnauthorized)

	_, err = h.uc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: alicePassword})
	assertKind(t, err, entity.ErrInvalidCredentials, http.StatusUnauthorized)
}

func TestIssueTokenKeyOrSession(t *testing.T) {
	h := newHarness(t)

	out, err := h.uc.IssueTokenKeyOrSession(context.Background(), aliceID)
	require.NoError(t, err)
	assert.NotEmpty(t, out.AccessToken)

	h.enable(t)

	out, err = h.uc.IssueTokenKeyOrSession(context.Background(), aliceID)
	require.NoError(t, err)
	assert.True(t, out.TwoFactorRequired)
	assert.Empty(t, out.AccessToken)
	assert.Equal(t, t0.Add(5*time.Minute), out.ExpiresAt)

	_, err = h.uc.IssueTokenKeyOrSession(context.Background(), 999)
	assertKind(t, err, entity.ErrAccountNotFound, http.StatusNotFound)
}

func TestCompleteLogin_TOTP(t *testing.T) {
	h := newHarness(t)
	secret, _ := h.enable(t)
	key := h.tokenKey(t)

	// a token key is never a session
	_, err := h.jwt.Verify(key, jwt.TypeSession)
	require.ErrorIs(t, err, jwt.ErrWrongTokenType)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: h.wrongCode(t, secret)})
	assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)

	out, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: h.code(t, secret)})
	require.NoError(t, err)
	assert.Equal(t, entity.LoginFactorTOTP, out.Factor)

	clm, err := h.jwt.Verify(out.AccessToken, jwt.TypeSession)
	require.NoError(t, err)
	assert.Equal(t, aliceID, clm.AccountID)
	assert.Equal(t, "alice@example.com", clm.Label)

	stored, err := h.db.GetEnrollment(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Len(t, stored.BackupCodesHashed, 10, "a totp match changes nothing")
}

func TestCompleteLogin_BackupCodeIsOneTime(t *testing.T) {
	h := newHarness(t)
	_, codes := h.enable(t)

	// users type codes in lower case and with separators
	typed := strings.ToLower(codes[3][:4]) + "-" + codes[3][4:]
	out, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: typed})
	require.NoError(t, err)
	assert.Equal(t, entity.LoginFactorBackupCode, out.Factor)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: codes[3]})
	assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: codes[4]})
	require.NoError(t, err)

	status, err := h.uc.GetEnrollmentStatus(aliceCtx())
	require.NoError(t, err)
	assert.Equal(t, 8, status.BackupCodesRemaining)

	require.NoError(t, h.gm.Wait())
	assert.ElementsMatch(t, []entity.SecurityEventType{
		entity.SecurityEventEnabled,
		entity.SecurityEventBackupCodeUsed,
		entity.SecurityEventBackupCodeUsed,
	}, h.mq.types())
}

func TestCompleteLogin_OnlyBackupShapedCodesReachStore(t *testing.T) {
	h := newHarness(t)
	secret, codes := h.enable(t)

	tests := []struct {
		name  string
		code  string
		calls int
	}{
		{name: "MistypedTOTP", code: h.wrongCode(t, secret), calls: 0},
		{name: "TooLong", code: "ABCDEFGHJK", calls: 0},
		{name: "OutsideAlphabet", code: "0000OOOO", calls: 0},
		{name: "UnknownBackupShaped", code: "ZZZZZZZZ", calls: 1},
		{name: "SeparatedBackupShaped", code: "zzzz-zzzz", calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotContains(t, codes, strings.ToUpper(strings.ReplaceAll(tt.code, "-", "")))

			before := h.db.consumed()
			_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: tt.code})
			assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)
			assert.Equal(t, tt.calls, h.db.consumed()-before)

			h.uc.resetThrottle(context.Background(), aliceID)
		})
	}

	stored, err := h.db.GetEnrollment(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Len(t, stored.BackupCodesHashed, 10)
}

func TestCompleteLogin_ConcurrentBackupCodes(t *testing.T) {
	h := newHarness(t)
	_, codes := h.enable(t)

	keys := []string{h.tokenKey(t), h.tokenKey(t)}
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range 2 {
		wg.Go(func() {
			_, errs[i] = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: keys[i], Code: codes[i]})
		})
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	stored, err := h.db.GetEnrollment(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Len(t, stored.BackupCodesHashed, 8)
}

func TestCompleteLogin_TokenKeyExpired(t *testing.T) {
	h := newHarness(t)
	secret, _ := h.enable(t)
	key := h.tokenKey(t)

	h.clk.Advance(6 * time.Minute)

	_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: h.code(t, secret)})
	assertKind(t, err, entity.ErrTokenExpired, http.StatusUnauthorized)
}

func TestCompleteLogin_RejectsSessionAsTokenKey(t *testing.T) {
	h := newHarness(t)
	secret, _ := h.enable(t)

	session, err := h.jwt.Issue(jwt.TypeSession, aliceID, "alice@example.com")
	require.NoError(t, err)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: session.Value, Code: h.code(t, secret)})
	assertKind(t, err, entity.ErrInvalidTokenKey, http.StatusUnauthorized)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: "not-a-token", Code: h.code(t, secret)})
	assertKind(t, err, entity.ErrInvalidTokenKey, http.StatusUnauthorized)
}

func TestCompleteLogin_NotEnrolled(t *testing.T) {
	h := newHarness(t)
	secret, _ := h.enable(t)
	key := h.tokenKey(t)

	require.NoError(t, h.uc.DisableEnrollment(aliceCtx(), DisableEnrollmentInput{Password: alicePassword}))

	_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: h.code(t, secret)})
	assertKind(t, err, entity.ErrNotEnrolled, http.StatusConflict)
}

func TestCompleteLogin_DecryptionIsAlert(t *testing.T) {
	h := newHarness(t)
	secret, _ := h.enable(t)

	h.db.mu.Lock()
	e := h.db.enrollments[aliceID]
	e.SecretEncrypted[len(e.SecretEncrypted)-1] ^= 0xff
	h.db.enrollments[aliceID] = e
	h.db.mu.Unlock()

	_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: h.code(t, secret)})
	require.ErrorIs(t, err, entity.ErrDecryption)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.True(t, gerr.Alert())
	assert.Equal(t, http.StatusInternalServerError, gerr.StatusCode())
	assert.Equal(t, "Internal server error", gerr.Msg())
}

func TestCompleteLogin_Throttle(t *testing.T) {
	h := newHarness(t)
	secret, _ := h.enable(t)
	key := h.tokenKey(t)
	wrong := h.wrongCode(t, secret)

	for range 5 {
		_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: wrong})
		assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)
	}

	_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: h.code(t, secret)})
	assertKind(t, err, entity.ErrTooManyAttempts, http.StatusTooManyRequests)
}

func TestCompleteLogin_SuccessResetsThrottle(t *testing.T) {
	h := newHarness(t)
	secret, _ := h.enable(t)
	key := h.tokenKey(t)
	wrong := h.wrongCode(t, secret)

	for range 4 {
		_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: wrong})
		require.Error(t, err)
	}
	_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: h.code(t, secret)})
	require.NoError(t, err)

	for range 4 {
		_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: key, Code: wrong})
		assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)
	}
}

func TestCompleteLogin_ReplayGuard(t *testing.T) {
	h := newHarness(t, withReplayGuard())
	secret, _ := h.enable(t)
	h.clk.Advance(time.Minute)
	code := h.code(t, secret)

	_, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: code})
	require.NoError(t, err)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: code})
	assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)

	h.clk.Advance(time.Minute)
	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: h.code(t, secret)})
	require.NoError(t, err)
}

func TestCompleteLogin_EnablingCodeIsSpent(t *testing.T) {
	h := newHarness(t, withReplayGuard())
	begin, err := h.uc.BeginEnrollment(aliceCtx())
	require.NoError(t, err)

	code := h.code(t, begin.Secret)
	_, err = h.uc.EnableEnrollment(aliceCtx(), EnableEnrollmentInput{Code: code})
	require.NoError(t, err)

	h.clk.Advance(20 * time.Second)
	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: code})
	assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)

	h.clk.Advance(time.Minute)
	out, err := h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: h.code(t, begin.Secret)})
	require.NoError(t, err)
	assert.Equal(t, entity.LoginFactorTOTP, out.Factor)
}
