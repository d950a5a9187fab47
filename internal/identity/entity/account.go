package entity

import "time"

type Account struct {
	ID           int64
	Email        string
	DisplayName  string
	PasswordHash string
}

// Label is the account name shown in authenticator apps.
func (a Account) Label() string {
	return a.Email
}

// TotpEnrollment is the durable two-step record of an account. Secret is the
// vault blob, never plaintext; BackupCodesHashed keeps issue order.
type TotpEnrollment struct {
	ID                int64
	AccountID         int64
	SecretEncrypted   []byte
	BackupCodesHashed []string
	Enabled           bool
	EnabledAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Usable reports whether the enrollment can serve a second-factor login.
func (e *TotpEnrollment) Usable() bool {
	return e != nil && e.Enabled && len(e.SecretEncrypted) > 0
}

// PendingEnrollment is the scratch state between begin and enable. It lives
// only in the pending store and holds plaintext, so it must never be logged.
type PendingEnrollment struct {
	AccountID   int64     `json:"account_id"`
	Secret      string    `json:"secret"`
	BackupCodes []string  `json:"backup_codes"`
	CreatedAt   time.Time `json:"created_at"`
}

// Expired reports whether the pending state is older than ttl at now. A
// non-positive ttl never expires.
func (p *PendingEnrollment) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && !now.Before(p.CreatedAt.Add(ttl))
}

// StateOf derives the enrollment state from the durable record and whether a
// pending enrollment exists.
func StateOf(e *TotpEnrollment, pending bool) EnrollmentState {
	switch {
	case e != nil && e.Enabled:
		return EnrollmentStateEnabled
	case pending:
		return EnrollmentStatePendingVerification
	case e != nil:
		return EnrollmentStateDisabled
	default:
		return EnrollmentStateNotEnrolled
	}
}
