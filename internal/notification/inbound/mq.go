package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/twostep/internal/pkg/config"
	"github.com/shandysiswandi/twostep/internal/pkg/goroutine"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/messaging"
	"github.com/shandysiswandi/twostep/internal/pkg/uid"
	"github.com/shandysiswandi/twostep/internal/shared/event"
)

func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")

	var consumers = []struct {
		name       string
		topic      string // destination where publisher sent message
		queueGroup string
		handler    messaging.Handler
	}{
		{
			name:       event.SecurityEventDestinationConsumerNotification,
			topic:      event.SecurityEventDestination,
			queueGroup: event.SecurityEventDestinationConsumerNotification,
			handler:    mqHandler.SecurityEventNotification,
		},
	}

	for _, consumer := range consumers {
		if len(enableConsumerNames) > 0 && slices.Contains(enableConsumerNames, consumer.name) {
			routine.Go(ctx, func(pCtx context.Context) error {
				slog.InfoContext(ctx, "Running job for handling consumer", "consumer", consumer.name)
				return messenger.Consume(pCtx,
					consumer.topic,
					consumer.handler,
					messaging.WithQueueGroup(consumer.queueGroup),
					messaging.WithAutoAck(true),
					messaging.WithConcurrency(cfg.GetInt("modules.notification.concurrency")),
				)
			})
		}
	}
}
