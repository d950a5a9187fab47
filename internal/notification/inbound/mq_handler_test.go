package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/twostep/internal/notification/usecase"
	"github.com/shandysiswandi/twostep/internal/pkg/config"
	"github.com/shandysiswandi/twostep/internal/pkg/goroutine"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"github.com/shandysiswandi/twostep/internal/pkg/messaging"
	"github.com/shandysiswandi/twostep/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type fakeUsecase struct {
	mu   sync.Mutex
	got  []usecase.ConsumeSecurityEventInput
	cids []string
	err  error
}

func (f *fakeUsecase) ConsumeSecurityEvent(ctx context.Context, in usecase.ConsumeSecurityEventInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, in)
	f.cids = append(f.cids, instrument.GetCorrelationID(ctx))
	return f.err
}

func (f *fakeUsecase) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

type stubMessage struct {
	body    []byte
	headers map[string]string
}

func (m stubMessage) Body() []byte               { return m.body }
func (m stubMessage) Header(key string) string   { return m.headers[key] }
func (m stubMessage) Subject() string            { return event.SecurityEventDestination }
func (m stubMessage) Timestamp() time.Time       { return time.Time{} }
func (m stubMessage) Ack(context.Context) error  { return nil }
func (m stubMessage) Nack(context.Context) error { return nil }

func securityEventBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(event.SecurityEventMessage{
		Type:                 event.SecurityEventBackupCodeUsed,
		AccountID:            42,
		Email:                "alice@example.com",
		ActorID:              42,
		BackupCodesRemaining: 7,
		OccurredAt:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return body
}

func TestMQHandler_SecurityEventNotification(t *testing.T) {
	t.Run("Decodes", func(t *testing.T) {
		fake := &fakeUsecase{}
		h := &MQHandler{uc: fake, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		err := h.SecurityEventNotification(context.Background(), stubMessage{
			body:    securityEventBody(t),
			headers: map[string]string{keyOfCorrelationID: "cid-1"},
		})

		require.NoError(t, err)
		require.Len(t, fake.got, 1)
		assert.Equal(t, usecase.ConsumeSecurityEventInput{
			Type:                 event.SecurityEventBackupCodeUsed,
			AccountID:            42,
			Email:                "alice@example.com",
			ActorID:              42,
			BackupCodesRemaining: 7,
			OccurredAt:           time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}, fake.got[0])
		assert.Equal(t, []string{"cid-1"}, fake.cids)
	})

	t.Run("GeneratesCorrelationID", func(t *testing.T) {
		fake := &fakeUsecase{}
		h := &MQHandler{uc: fake, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		require.NoError(t, h.SecurityEventNotification(context.Background(), stubMessage{body: securityEventBody(t)}))
		assert.Equal(t, []string{"generated"}, fake.cids)
	})

	t.Run("MalformedBodyIsDropped", func(t *testing.T) {
		fake := &fakeUsecase{}
		h := &MQHandler{uc: fake, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		require.NoError(t, h.SecurityEventNotification(context.Background(), stubMessage{body: []byte("{")}))
		assert.Empty(t, fake.got)
	})

	t.Run("UsecaseErrorIsReturned", func(t *testing.T) {
		fake := &fakeUsecase{err: errors.New("smtp down")}
		h := &MQHandler{uc: fake, uuid: fixedID("generated"), ins: instrument.NewNoop()}

		err := h.SecurityEventNotification(context.Background(), stubMessage{body: securityEventBody(t)})
		assert.ErrorIs(t, err, fake.err)
	})
}

func TestRegisterMQConsumer(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
modules:
  notification:
    concurrency: 2
    consumer_names:
      - identity_security_event_notification
`), nil)
	require.NoError(t, err)

	broker := messaging.NewMemory()
	t.Cleanup(func() { _ = broker.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	routine := goroutine.NewManager(2)
	t.Cleanup(func() {
		cancel()
		_ = routine.Wait()
	})

	fake := &fakeUsecase{}
	RegisterMQConsumer(ctx, cfg, routine, broker, fixedID("generated"), fake, instrument.NewNoop())

	body := securityEventBody(t)
	// the consumer subscribes asynchronously; publish until one delivery lands
	require.Eventually(t, func() bool {
		if fake.calls() > 0 {
			return true
		}
		_ = broker.Publish(context.Background(), event.SecurityEventDestination, messaging.OutgoingMessage{Body: body})
		return false
	}, 2*time.Second, 20*time.Millisecond)
}
