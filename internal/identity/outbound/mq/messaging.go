package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/twostep/internal/identity/usecase"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/messaging"
	"github.com/shandysiswandi/twostep/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishSecurityEvent(ctx context.Context, msg usecase.SecurityEvent) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishSecurityEvent")
	defer span.End()

	body, err := json.Marshal(event.SecurityEventMessage{
		Type:                 string(msg.Type),
		AccountID:            msg.AccountID,
		Email:                msg.Email,
		ActorID:              msg.ActorID,
		BackupCodesRemaining: msg.Remaining,
		OccurredAt:           msg.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if err := m.client.Publish(ctx, event.SecurityEventDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: cID},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
