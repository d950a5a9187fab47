package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail that only logs the envelope. Bodies are never logged.
type Log struct{}

func NewLog() *Log { return &Log{} }

func (*Log) Send(ctx context.Context, msg Message) error {
	if len(msg.Recipients()) == 0 {
		return ErrSMTPNoRecipients
	}
	slog.InfoContext(ctx, "mail not delivered, smtp disabled", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (*Log) Close() error { return nil }
