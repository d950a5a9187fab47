package db

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/migrate"
	"github.com/shandysiswandi/twostep/internal/pkg/testinfra"
	"github.com/shandysiswandi/twostep/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) (*DB, *pgxpool.Pool) {
	t.Helper()

	dsn := testinfra.PostgresDSN(t)
	ctx := context.Background()
	require.NoError(t, migrate.Up(ctx, dsn, migrations.FS))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		INSERT INTO accounts (id, email, display_name, password_hash)
		VALUES (1, 'Alice@Example.com', 'Alice', 'hash-a'), (2, 'bob@example.com', 'Bob', 'hash-b')`)
	require.NoError(t, err)

	return NewDB(pool, instrument.NewNoop()), pool
}

func equalMatcher(code string) func([]string) int {
	return func(hashes []string) int {
		for i, h := range hashes {
			if h == code {
				return i
			}
		}
		return -1
	}
}

func TestDB_Accounts(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	acc, err := db.GetAccountByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Alice", acc.DisplayName)
	assert.Equal(t, "hash-a", acc.PasswordHash)

	acc, err = db.GetAccountByEmail(ctx, "alice@example.COM")
	require.NoError(t, err)
	assert.Equal(t, int64(1), acc.ID)

	_, err = db.GetAccountByID(ctx, 99)
	require.ErrorIs(t, err, goerror.ErrNotFound)

	_, err = db.GetAccountByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestDB_EnrollmentLifecycle(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	_, err := db.GetEnrollment(ctx, 1)
	require.ErrorIs(t, err, goerror.ErrNotFound)

	enabledAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.UpsertEnrollment(ctx, entity.TotpEnrollment{
		ID:                100,
		AccountID:         1,
		SecretEncrypted:   []byte{1, 2, 3},
		BackupCodesHashed: []string{"h1", "h2"},
		Enabled:           true,
		EnabledAt:         &enabledAt,
	}))

	e, err := db.GetEnrollment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), e.ID)
	assert.True(t, e.Enabled)
	assert.Equal(t, []byte{1, 2, 3}, e.SecretEncrypted)
	assert.Equal(t, []string{"h1", "h2"}, e.BackupCodesHashed)
	require.NotNil(t, e.EnabledAt)
	assert.True(t, e.EnabledAt.Equal(enabledAt))

	require.NoError(t, db.ReplaceBackupCodes(ctx, 1, []string{"h3"}))

	changed, err := db.DisableEnrollment(ctx, 1)
	require.NoError(t, err)
	assert.True(t, changed)

	e, err = db.GetEnrollment(ctx, 1)
	require.NoError(t, err)
	assert.False(t, e.Enabled)
	assert.Nil(t, e.EnabledAt)
	assert.Nil(t, e.SecretEncrypted)
	assert.Empty(t, e.BackupCodesHashed)

	changed, err = db.DisableEnrollment(ctx, 1)
	require.NoError(t, err)
	assert.False(t, changed)

	require.ErrorIs(t, db.ReplaceBackupCodes(ctx, 1, []string{"h4"}), goerror.ErrNotFound)

	// re-enable keeps the row id
	require.NoError(t, db.UpsertEnrollment(ctx, entity.TotpEnrollment{
		ID:                200,
		AccountID:         1,
		SecretEncrypted:   []byte{9},
		BackupCodesHashed: []string{"n1"},
		Enabled:           true,
		EnabledAt:         &enabledAt,
	}))
	e, err = db.GetEnrollment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), e.ID)
	assert.Equal(t, []string{"n1"}, e.BackupCodesHashed)
}

func TestDB_ConsumeBackupCode(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, db.UpsertEnrollment(ctx, entity.TotpEnrollment{
		ID:                100,
		AccountID:         1,
		SecretEncrypted:   []byte{1},
		BackupCodesHashed: []string{"a", "b", "c"},
		Enabled:           true,
		EnabledAt:         &now,
	}))

	remaining, matched, err := db.ConsumeBackupCode(ctx, 1, equalMatcher("b"))
	require.NoError(t, err)
	assert.True(t, matched)
	assert.Equal(t, 2, remaining)

	remaining, matched, err = db.ConsumeBackupCode(ctx, 1, equalMatcher("b"))
	require.NoError(t, err)
	assert.False(t, matched)
	assert.Equal(t, 2, remaining)

	e, err := db.GetEnrollment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, e.BackupCodesHashed)

	_, _, err = db.ConsumeBackupCode(ctx, 2, equalMatcher("a"))
	require.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestDB_ConsumeBackupCode_Concurrent(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	now := time.Now()
	codes := []string{"c0", "c1", "c2", "c3", "c4", "c5", "c6", "c7"}
	require.NoError(t, db.UpsertEnrollment(ctx, entity.TotpEnrollment{
		ID:                100,
		AccountID:         1,
		SecretEncrypted:   []byte{1},
		BackupCodesHashed: codes,
		Enabled:           true,
		EnabledAt:         &now,
	}))

	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := range results {
		wg.Go(func() {
			_, matched, err := db.ConsumeBackupCode(ctx, 1, equalMatcher(codes[i*2]))
			assert.NoError(t, err)
			results[i] = matched
		})
	}
	wg.Wait()

	for i, ok := range results {
		assert.True(t, ok, "code %d", i*2)
	}

	e, err := db.GetEnrollment(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c3", "c5", "c7"}, e.BackupCodesHashed)
}
