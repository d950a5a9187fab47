package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrSubjectRequired = errors.New("messaging: subject is required")
	ErrHandlerRequired = errors.New("messaging: handler is required")
	ErrClosed          = errors.New("messaging: client is closed")
)

// Messaging publishes and consumes messages.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

type Publisher interface {
	Publish(ctx context.Context, subject string, msg OutgoingMessage) error
}

// Consumer blocks in Consume until ctx is done, dispatching to handler.
type Consumer interface {
	Consume(ctx context.Context, subject string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes one message. With auto-ack a nil error acks and a
// non-nil error nacks.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish.
type OutgoingMessage struct {
	Body    []byte
	Headers map[string]string
}

// Message is a received message.
type Message interface {
	Body() []byte
	Header(key string) string
	Subject() string
	Timestamp() time.Time
	Ack(ctx context.Context) error
	Nack(ctx context.Context) error
}
