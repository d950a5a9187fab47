package db

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sethvargo/go-retry"
)

const (
	consumeMaxRetries = 3
	consumeBaseDelay  = 25 * time.Millisecond
)

// ConsumeBackupCode removes the first stored hash that match selects. The row
// stays locked from the read to the write, so concurrent uses of different
// codes by one account both land. match runs inside the lock and returns -1
// for no match.
func (s *DB) ConsumeBackupCode(ctx context.Context, accountID int64, match func(hashes []string) int) (remaining int, matched bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeBackupCode")
	defer func() { s.endSpan(span, err) }()

	b := retry.WithMaxRetries(consumeMaxRetries, retry.NewExponential(consumeBaseDelay))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		var txErr error
		remaining, matched, txErr = s.consumeBackupCode(ctx, accountID, match)
		if isRetryable(txErr) {
			slog.WarnContext(ctx, "retrying backup code consumption", "account_id", accountID, "error", txErr)
			return retry.RetryableError(txErr)
		}
		return txErr
	})

	return remaining, matched, err
}

func (s *DB) consumeBackupCode(ctx context.Context, accountID int64, match func([]string) int) (int, bool, error) {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, false, err
	}
	defer func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}()

	var hashes []string
	if err := tx.QueryRow(ctx, `
		SELECT backup_codes_hashed
		FROM totp_enrollments
		WHERE account_id = $1 AND enabled
		FOR UPDATE`, accountID,
	).Scan(&hashes); err != nil {
		return 0, false, s.mapError(err)
	}

	idx := match(hashes)
	if idx < 0 || idx >= len(hashes) {
		return len(hashes), false, nil
	}

	rest := slices.Delete(slices.Clone(hashes), idx, idx+1)
	if _, err := tx.Exec(ctx, `
		UPDATE totp_enrollments
		SET backup_codes_hashed = $2, updated_at = now()
		WHERE account_id = $1`, accountID, rest,
	); err != nil {
		return 0, false, s.mapError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, s.mapError(err)
	}

	return len(rest), true, nil
}
