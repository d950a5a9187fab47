package entity

// AlertKind is the security event a mail is sent for.
type AlertKind string

const (
	AlertTwoStepEnabled         AlertKind = "two_step_enabled"
	AlertTwoStepDisabled        AlertKind = "two_step_disabled"
	AlertBackupCodesRegenerated AlertKind = "backup_codes_regenerated"
	AlertBackupCodeUsed         AlertKind = "backup_code_used"
	AlertTwoStepReset           AlertKind = "two_step_reset"
)

func (k AlertKind) String() string {
	return string(k)
}

// Template is a subject and an HTML body, both text/template sources.
type Template struct {
	Subject string
	Body    string
}
