package usecase

import (
	"context"
	"net/http"
	"slices"
	"testing"
	"time"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/otp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollment_BeginConfirmEnableStatus(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()

	status, err := h.uc.GetEnrollmentStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.EnrollmentStateNotEnrolled, status.State)
	assert.False(t, status.Enabled)
	assert.Nil(t, status.EnabledAt)

	begin, err := h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)
	assert.Len(t, begin.Secret, 32)
	assert.Contains(t, begin.ProvisioningURI, "otpauth://totp/TwoStep:alice%40example.com?secret="+begin.Secret)
	assert.Empty(t, begin.QRCode, "no renderer configured")
	require.Len(t, begin.BackupCodes, otp.DefaultBackupCodeCount)
	for _, c := range begin.BackupCodes {
		assert.Len(t, c, otp.DefaultBackupCodeLength)
	}

	status, err = h.uc.GetEnrollmentStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.EnrollmentStatePendingVerification, status.State)
	assert.False(t, status.Enabled)

	code := h.code(t, begin.Secret)
	require.NoError(t, h.uc.ConfirmEnrollment(ctx, ConfirmEnrollmentInput{Code: code}))

	// confirm does not commit anything
	_, err = h.db.GetEnrollment(ctx, aliceID)
	require.ErrorIs(t, err, goerror.ErrNotFound)

	out, err := h.uc.EnableEnrollment(ctx, EnableEnrollmentInput{Code: code})
	require.NoError(t, err)
	assert.True(t, out.EnabledAt.Equal(t0))

	status, err = h.uc.GetEnrollmentStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.EnrollmentStateEnabled, status.State)
	assert.True(t, status.Enabled)
	require.NotNil(t, status.EnabledAt)
	assert.True(t, status.EnabledAt.Equal(t0))
	assert.Equal(t, otp.DefaultBackupCodeCount, status.BackupCodesRemaining)

	stored, err := h.db.GetEnrollment(ctx, aliceID)
	require.NoError(t, err)
	assert.NotContains(t, string(stored.SecretEncrypted), begin.Secret)
	for i, hashed := range stored.BackupCodesHashed {
		assert.NotEqual(t, begin.BackupCodes[i], hashed)
	}

	_, err = h.cache.GetPending(ctx, aliceID)
	require.ErrorIs(t, err, goerror.ErrNotFound, "pending state is cleared on enable")

	require.NoError(t, h.gm.Wait())
	assert.Equal(t, []entity.SecurityEventType{entity.SecurityEventEnabled}, h.mq.types())
}

func TestEnrollment_WithoutBegin(t *testing.T) {
	h := newHarness(t)

	err := h.uc.ConfirmEnrollment(aliceCtx(), ConfirmEnrollmentInput{Code: "123456"})
	assertKind(t, err, entity.ErrNoPendingEnrollment, http.StatusNotFound)

	_, err = h.uc.EnableEnrollment(aliceCtx(), EnableEnrollmentInput{Code: "123456"})
	assertKind(t, err, entity.ErrNoPendingEnrollment, http.StatusNotFound)
}

func TestEnrollment_RequiresSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.BeginEnrollment(context.Background())
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, http.StatusUnauthorized, gerr.StatusCode())

	_, err = h.uc.BeginEnrollment(sessionCtx(999, "ghost@example.com"))
	assertKind(t, err, entity.ErrAccountNotFound, http.StatusNotFound)
}

func TestEnrollment_InvalidInput(t *testing.T) {
	h := newHarness(t)

	err := h.uc.ConfirmEnrollment(aliceCtx(), ConfirmEnrollmentInput{Code: "12ab"})
	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeInvalidInput, gerr.Code())
}

func TestEnrollment_WrongCodeKeepsPending(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()

	begin, err := h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)

	_, err = h.uc.EnableEnrollment(ctx, EnableEnrollmentInput{Code: h.wrongCode(t, begin.Secret)})
	assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)

	_, err = h.cache.GetPending(ctx, aliceID)
	require.NoError(t, err)

	_, err = h.uc.EnableEnrollment(ctx, EnableEnrollmentInput{Code: h.code(t, begin.Secret)})
	require.NoError(t, err)
}

func TestEnrollment_DriftWindow(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()

	begin, err := h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)

	code := h.code(t, begin.Secret)

	h.clk.Advance(30 * time.Second)
	require.NoError(t, h.uc.ConfirmEnrollment(ctx, ConfirmEnrollmentInput{Code: code}))

	h.clk.Advance(60 * time.Second)
	err = h.uc.ConfirmEnrollment(ctx, ConfirmEnrollmentInput{Code: code})
	assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)
}

func TestEnrollment_BeginReplacesPending(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()

	first, err := h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)
	second, err := h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.Secret, second.Secret)

	pending, err := h.cache.GetPending(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, second.Secret, pending.Secret)
	assert.Equal(t, second.BackupCodes, pending.BackupCodes)
}

func TestEnrollment_PendingExpired(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()

	require.NoError(t, h.cache.SetPending(ctx, entity.PendingEnrollment{
		AccountID: aliceID,
		Secret:    "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
		CreatedAt: t0.Add(-11 * time.Minute),
	}, 0))

	err := h.uc.ConfirmEnrollment(ctx, ConfirmEnrollmentInput{Code: h.code(t, "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ")})
	assertKind(t, err, entity.ErrPendingExpired, http.StatusNotFound)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "session expired", gerr.Msg())

	_, err = h.cache.GetPending(ctx, aliceID)
	require.ErrorIs(t, err, goerror.ErrNotFound, "stale pending state is removed")

	status, err := h.uc.GetEnrollmentStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.EnrollmentStateNotEnrolled, status.State)
}

func TestEnrollment_DiscardPending(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()

	begin, err := h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)
	require.NoError(t, h.uc.DiscardEnrollment(ctx))

	err = h.uc.ConfirmEnrollment(ctx, ConfirmEnrollmentInput{Code: h.code(t, begin.Secret)})
	assertKind(t, err, entity.ErrNoPendingEnrollment, http.StatusNotFound)
}

func TestEnrollment_ConfirmThrottled(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()

	begin, err := h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)
	wrong := h.wrongCode(t, begin.Secret)

	for range 5 {
		err := h.uc.ConfirmEnrollment(ctx, ConfirmEnrollmentInput{Code: wrong})
		assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)
	}

	err = h.uc.ConfirmEnrollment(ctx, ConfirmEnrollmentInput{Code: h.code(t, begin.Secret)})
	assertKind(t, err, entity.ErrTooManyAttempts, http.StatusTooManyRequests)

	h.clk.Advance(15 * time.Minute)
	begin, err = h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)
	require.NoError(t, h.uc.ConfirmEnrollment(ctx, ConfirmEnrollmentInput{Code: h.code(t, begin.Secret)}))
}

func TestDisableEnrollment(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()
	h.enable(t)

	err := h.uc.DisableEnrollment(ctx, DisableEnrollmentInput{Password: "wrong-password"})
	assertKind(t, err, entity.ErrInvalidPassword, http.StatusUnauthorized)

	// a new pending enrollment started while enabled is cleared too
	_, err = h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)

	require.NoError(t, h.uc.DisableEnrollment(ctx, DisableEnrollmentInput{Password: alicePassword}))

	status, err := h.uc.GetEnrollmentStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.EnrollmentStateDisabled, status.State)
	assert.False(t, status.Enabled)
	assert.Nil(t, status.EnabledAt)
	assert.Zero(t, status.BackupCodesRemaining)

	stored, err := h.db.GetEnrollment(ctx, aliceID)
	require.NoError(t, err)
	assert.Nil(t, stored.SecretEncrypted)
	assert.Empty(t, stored.BackupCodesHashed)

	_, err = h.cache.GetPending(ctx, aliceID)
	require.ErrorIs(t, err, goerror.ErrNotFound)

	// disabling again is a no-op
	require.NoError(t, h.uc.DisableEnrollment(ctx, DisableEnrollmentInput{Password: alicePassword}))

	require.NoError(t, h.gm.Wait())
	assert.ElementsMatch(t, []entity.SecurityEventType{entity.SecurityEventEnabled, entity.SecurityEventDisabled}, h.mq.types())
}

func TestDisableEnrollment_ReEnrollNeedsFreshSecret(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()
	oldSecret, _ := h.enable(t)

	require.NoError(t, h.uc.DisableEnrollment(ctx, DisableEnrollmentInput{Password: alicePassword}))

	_, err := h.uc.EnableEnrollment(ctx, EnableEnrollmentInput{Code: h.code(t, oldSecret)})
	assertKind(t, err, entity.ErrNoPendingEnrollment, http.StatusNotFound)

	begin, err := h.uc.BeginEnrollment(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, oldSecret, begin.Secret)

	_, err = h.uc.EnableEnrollment(ctx, EnableEnrollmentInput{Code: h.code(t, begin.Secret)})
	require.NoError(t, err)
}

func TestRegenerateBackupCodes(t *testing.T) {
	h := newHarness(t)
	ctx := aliceCtx()

	_, err := h.uc.RegenerateBackupCodes(ctx, RegenerateBackupCodesInput{Password: alicePassword})
	assertKind(t, err, entity.ErrNotEnrolled, http.StatusConflict)

	secret, oldCodes := h.enable(t)

	_, err = h.uc.RegenerateBackupCodes(ctx, RegenerateBackupCodesInput{Password: "wrong-password"})
	assertKind(t, err, entity.ErrInvalidPassword, http.StatusUnauthorized)

	before, err := h.db.GetEnrollment(ctx, aliceID)
	require.NoError(t, err)

	out, err := h.uc.RegenerateBackupCodes(ctx, RegenerateBackupCodesInput{Password: alicePassword})
	require.NoError(t, err)
	require.Len(t, out.BackupCodes, otp.DefaultBackupCodeCount)

	after, err := h.db.GetEnrollment(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, before.SecretEncrypted, after.SecretEncrypted, "secret is untouched")
	assert.True(t, after.Enabled)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: oldCodes[0]})
	assertKind(t, err, entity.ErrInvalidCode, http.StatusUnauthorized)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: out.BackupCodes[0]})
	require.NoError(t, err)

	_, err = h.uc.CompleteLogin(context.Background(), CompleteLoginInput{TokenKey: h.tokenKey(t), Code: h.code(t, secret)})
	require.NoError(t, err)
}

func TestResetEnrollment(t *testing.T) {
	h := newHarness(t)
	h.enable(t)

	err := h.uc.ResetEnrollment(aliceCtx(), ResetEnrollmentInput{AccountID: aliceID})
	assertKind(t, err, entity.ErrForbidden, http.StatusForbidden)

	operator := sessionCtx(bobID, "bob@example.com")
	err = h.uc.ResetEnrollment(operator, ResetEnrollmentInput{AccountID: 999})
	assertKind(t, err, entity.ErrAccountNotFound, http.StatusNotFound)

	require.NoError(t, h.uc.ResetEnrollment(operator, ResetEnrollmentInput{AccountID: aliceID}))

	status, err := h.uc.GetEnrollmentStatus(aliceCtx())
	require.NoError(t, err)
	assert.False(t, status.Enabled)

	out, err := h.uc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: alicePassword})
	require.NoError(t, err)
	assert.False(t, out.TwoFactorRequired)

	require.NoError(t, h.gm.Wait())
	h.mq.mu.Lock()
	defer h.mq.mu.Unlock()
	require.Len(t, h.mq.events, 2)
	idx := slices.IndexFunc(h.mq.events, func(ev SecurityEvent) bool { return ev.Type == entity.SecurityEventReset })
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, aliceID, h.mq.events[idx].AccountID)
	assert.Equal(t, bobID, h.mq.events[idx].ActorID)
	assert.Equal(t, "alice@example.com", h.mq.events[idx].Email)
}
