package messaging

import (
	"context"
	"maps"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

// Memory is an in-process Messaging. Each queue group receives a message
// once; consumers without a group each receive every message.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string][]*memorySub
	closed bool
}

type memorySub struct {
	group string
	ch    chan *memoryMessage
}

func NewMemory() *Memory {
	return &Memory{subs: make(map[string][]*memorySub)}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) Publish(ctx context.Context, subject string, msg OutgoingMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if subject == "" {
		return ErrSubjectRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}

	groups := make(map[string][]*memorySub)
	for _, s := range m.subs[subject] {
		if s.group == "" {
			deliver(ctx, s, subject, msg)
			continue
		}
		groups[s.group] = append(groups[s.group], s)
	}
	for _, members := range groups {
		deliver(ctx, members[rand.IntN(len(members))], subject, msg)
	}
	return nil
}

func deliver(ctx context.Context, s *memorySub, subject string, msg OutgoingMessage) {
	mm := &memoryMessage{
		subject:  subject,
		body:     append([]byte(nil), msg.Body...),
		headers:  maps.Clone(msg.Headers),
		received: time.Now(),
	}
	select {
	case s.ch <- mm:
	case <-ctx.Done():
	}
}

func (m *Memory) Consume(ctx context.Context, subject string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if subject == "" {
		return ErrSubjectRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	sub := &memorySub{group: co.queueGroup, ch: make(chan *memoryMessage, 64)}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.subs[subject] = append(m.subs[subject], sub)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case mm := <-sub.ch:
					dispatch(ctx, handler, mm, co.autoAck)
				}
			}
		})
	}

	<-ctx.Done()

	m.mu.Lock()
	list := m.subs[subject]
	for i, s := range list {
		if s == sub {
			m.subs[subject] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	wg.Wait()
	return ctx.Err()
}

type memoryMessage struct {
	subject  string
	body     []byte
	headers  map[string]string
	received time.Time
	acked    atomic.Int32 // 0 pending, 1 acked, 2 nacked
}

func (m *memoryMessage) Body() []byte             { return m.body }
func (m *memoryMessage) Header(key string) string { return m.headers[key] }
func (m *memoryMessage) Subject() string          { return m.subject }
func (m *memoryMessage) Timestamp() time.Time     { return m.received }

func (m *memoryMessage) Ack(context.Context) error {
	m.acked.CompareAndSwap(0, 1)
	return nil
}

func (m *memoryMessage) Nack(context.Context) error {
	m.acked.CompareAndSwap(0, 2)
	return nil
}
