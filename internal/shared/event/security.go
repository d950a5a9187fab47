package event

import "time"

const SecurityEventDestination string = "identity_security_event"
const SecurityEventDestinationConsumerNotification string = "identity_security_event_notification"

const (
	SecurityEventTwoStepEnabled         = "two_step_enabled"
	SecurityEventTwoStepDisabled        = "two_step_disabled"
	SecurityEventBackupCodesRegenerated = "backup_codes_regenerated"
	SecurityEventBackupCodeUsed         = "backup_code_used"
	SecurityEventTwoStepReset           = "two_step_reset"
)

// SecurityEventMessage reports a change to an account's second factor. It
// never carries secrets or codes.
type SecurityEventMessage struct {
	Type                 string    `json:"type"`
	AccountID            int64     `json:"account_id,string"`
	Email                string    `json:"email"`
	ActorID              int64     `json:"actor_id,string,omitempty"`
	BackupCodesRemaining int       `json:"backup_codes_remaining"`
	OccurredAt           time.Time `json:"occurred_at"`
}
