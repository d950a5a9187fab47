package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/twostep/internal/notification/usecase"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/messaging"
	"github.com/shandysiswandi/twostep/internal/pkg/uid"
	"github.com/shandysiswandi/twostep/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cid := msg.Header(keyOfCorrelationID); cid != "" {
		return instrument.SetCorrelationID(ctx, cid)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) SecurityEventNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "SecurityEventNotification")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: security event notification", "msg_body", string(body))

	var payload event.SecurityEventMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of security event notification", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeSecurityEvent(ctx, usecase.ConsumeSecurityEventInput{
		Type:                 payload.Type,
		AccountID:            payload.AccountID,
		Email:                payload.Email,
		ActorID:              payload.ActorID,
		BackupCodesRemaining: payload.BackupCodesRemaining,
		OccurredAt:           payload.OccurredAt,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume security event", "type", payload.Type, "account_id", payload.AccountID, "error", err)
		return err
	}

	return nil
}
