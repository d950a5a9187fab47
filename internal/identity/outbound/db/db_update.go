package db

import (
	"context"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
)

// UpsertEnrollment writes the account's single enrollment row. An existing row
// keeps its id and created_at.
func (s *DB) UpsertEnrollment(ctx context.Context, e entity.TotpEnrollment) (err error) {
	ctx, span := s.startSpan(ctx, "UpsertEnrollment")
	defer func() { s.endSpan(span, err) }()

	codes := e.BackupCodesHashed
	if codes == nil {
		codes = []string{}
	}

	_, err = s.conn.Exec(ctx, `
		INSERT INTO totp_enrollments (id, account_id, secret_encrypted, backup_codes_hashed, enabled, enabled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (account_id) DO UPDATE SET
			secret_encrypted    = EXCLUDED.secret_encrypted,
			backup_codes_hashed = EXCLUDED.backup_codes_hashed,
			enabled             = EXCLUDED.enabled,
			enabled_at          = EXCLUDED.enabled_at,
			updated_at          = now()`,
		e.ID, e.AccountID, e.SecretEncrypted, codes, e.Enabled, e.EnabledAt,
	)
	err = s.mapError(err)
	return err
}

// DisableEnrollment turns the enrollment off and purges its secret and backup
// hashes. It reports whether an enabled enrollment was changed.
func (s *DB) DisableEnrollment(ctx context.Context, accountID int64) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "DisableEnrollment")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE totp_enrollments
		SET enabled = FALSE, enabled_at = NULL, secret_encrypted = NULL, backup_codes_hashed = '{}', updated_at = now()
		WHERE account_id = $1 AND enabled`, accountID,
	)
	if err != nil {
		err = s.mapError(err)
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// ReplaceBackupCodes overwrites the backup hashes of an enabled enrollment.
// goerror.ErrNotFound means no enabled enrollment exists.
func (s *DB) ReplaceBackupCodes(ctx context.Context, accountID int64, hashes []string) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceBackupCodes")
	defer func() { s.endSpan(span, err) }()

	tag, err := s.conn.Exec(ctx, `
		UPDATE totp_enrollments
		SET backup_codes_hashed = $2, updated_at = now()
		WHERE account_id = $1 AND enabled`, accountID, hashes,
	)
	if err != nil {
		err = s.mapError(err)
		return err
	}

	if tag.RowsAffected() == 0 {
		err = goerror.ErrNotFound
		return err
	}

	return nil
}
