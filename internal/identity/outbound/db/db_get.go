package db

import (
	"context"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
)

func (s *DB) GetAccountByID(ctx context.Context, id int64) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByID")
	defer func() { s.endSpan(span, err) }()

	var acc entity.Account
	err = s.conn.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash
		FROM accounts
		WHERE id = $1`, id,
	).Scan(&acc.ID, &acc.Email, &acc.DisplayName, &acc.PasswordHash)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &acc, nil
}

func (s *DB) GetAccountByEmail(ctx context.Context, email string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByEmail")
	defer func() { s.endSpan(span, err) }()

	var acc entity.Account
	err = s.conn.QueryRow(ctx, `
		SELECT id, email, display_name, password_hash
		FROM accounts
		WHERE lower(email) = lower($1)`, email,
	).Scan(&acc.ID, &acc.Email, &acc.DisplayName, &acc.PasswordHash)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &acc, nil
}

func (s *DB) GetEnrollment(ctx context.Context, accountID int64) (_ *entity.TotpEnrollment, err error) {
	ctx, span := s.startSpan(ctx, "GetEnrollment")
	defer func() { s.endSpan(span, err) }()

	var e entity.TotpEnrollment
	err = s.conn.QueryRow(ctx, `
		SELECT id, account_id, secret_encrypted, backup_codes_hashed, enabled, enabled_at, created_at, updated_at
		FROM totp_enrollments
		WHERE account_id = $1`, accountID,
	).Scan(&e.ID, &e.AccountID, &e.SecretEncrypted, &e.BackupCodesHashed, &e.Enabled, &e.EnabledAt, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &e, nil
}
