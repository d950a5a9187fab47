package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twostep/internal/notification/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/mail"
)

type ConsumeSecurityEventInput struct {
	Type                 string    `validate:"required"`
	AccountID            int64     `validate:"required,gt=0"`
	Email                string    `validate:"required,email"`
	ActorID              int64     `validate:"gte=0"`
	BackupCodesRemaining int       `validate:"gte=0"`
	OccurredAt           time.Time `validate:"required"`
}

// ConsumeSecurityEvent mails the account owner about a change to their
// second factor. Malformed events are dropped; only a failed send is
// returned so the broker can redeliver.
func (s *Usecase) ConsumeSecurityEvent(ctx context.Context, in ConsumeSecurityEventInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeSecurityEvent")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "error", err)
		return nil
	}

	kind := entity.AlertKind(in.Type)
	tpl, ok := templates[kind]
	if !ok {
		slog.WarnContext(ctx, "no alert template for security event", "type", in.Type, "account_id", in.AccountID)
		return nil
	}

	data := s.baseEmailTemplateData()
	data["email"] = in.Email
	data["occurred_at"] = in.OccurredAt.UTC().Format(time.RFC1123)
	data["backup_codes_remaining"] = in.BackupCodesRemaining
	data["low_backup_codes"] = in.BackupCodesRemaining <= s.cfg.GetInt("modules.notification.low_backup_codes")

	body, err := s.renderTemplate("body", tpl.Body, data)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render email body", "account_id", in.AccountID, "type", kind.String(), "error", err)
		return nil
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  tpl.Subject,
		HTMLBody: body,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send security alert email", "account_id", in.AccountID, "type", kind.String(), "error", err)
		return err
	}

	slog.InfoContext(ctx, "security alert email sent", "account_id", in.AccountID, "type", kind.String())
	return nil
}
