package entity

type EnrollmentState int

const (
	EnrollmentStateNotEnrolled EnrollmentState = iota
	EnrollmentStatePendingVerification
	EnrollmentStateEnabled
	EnrollmentStateDisabled
)

func (s EnrollmentState) String() string {
	switch s {
	case EnrollmentStatePendingVerification:
		return "PENDING_VERIFICATION"
	case EnrollmentStateEnabled:
		return "ENABLED"
	case EnrollmentStateDisabled:
		return "DISABLED"
	default:
		return "NOT_ENROLLED"
	}
}

// SecurityEventType names a change to an account's second factor.
type SecurityEventType string

const (
	SecurityEventEnabled                SecurityEventType = "two_step_enabled"
	SecurityEventDisabled               SecurityEventType = "two_step_disabled"
	SecurityEventBackupCodesRegenerated SecurityEventType = "backup_codes_regenerated"
	SecurityEventBackupCodeUsed         SecurityEventType = "backup_code_used"
	SecurityEventReset                  SecurityEventType = "two_step_reset"
)

// LoginFactor records which factor satisfied step two. Internal only; it is
// never part of a response.
type LoginFactor int

const (
	LoginFactorNone LoginFactor = iota
	LoginFactorTOTP
	LoginFactorBackupCode
)

func (f LoginFactor) String() string {
	switch f {
	case LoginFactorTOTP:
		return "totp"
	case LoginFactorBackupCode:
		return "backup_code"
	default:
		return "none"
	}
}
