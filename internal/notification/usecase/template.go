package usecase

import "github.com/shandysiswandi/twostep/internal/notification/entity"

const alertFooter = `
<p>If this was not you, contact {{.support_email}} right away.</p>
<p>{{.company_name}}</p>`

var templates = map[entity.AlertKind]entity.Template{
	entity.AlertTwoStepEnabled: {
		Subject: "Two-step verification turned on",
		Body:    `<p>Two-step verification was turned on for {{.email}} at {{.occurred_at}}.</p>` + alertFooter,
	},
	entity.AlertTwoStepDisabled: {
		Subject: "Two-step verification turned off",
		Body: `<p>Two-step verification was turned off for {{.email}} at {{.occurred_at}}.</p>
<p>Your account is now protected by your password only.</p>` + alertFooter,
	},
	entity.AlertBackupCodesRegenerated: {
		Subject: "New backup codes generated",
		Body: `<p>New backup codes were generated for {{.email}} at {{.occurred_at}}.</p>
<p>Codes you saved before no longer work.</p>` + alertFooter,
	},
	entity.AlertBackupCodeUsed: {
		Subject: "A backup code was used to sign in",
		Body: `<p>A backup code was used to sign in to {{.email}} at {{.occurred_at}}.</p>
<p>You have {{.backup_codes_remaining}} backup codes left.</p>
{{if .low_backup_codes}}<p>You are running low. Generate a new set from your security settings.</p>{{end}}` + alertFooter,
	},
	entity.AlertTwoStepReset: {
		Subject: "Two-step verification was reset",
		Body: `<p>An administrator reset two-step verification for {{.email}} at {{.occurred_at}}.</p>
<p>Set it up again from your security settings.</p>` + alertFooter,
	},
}
