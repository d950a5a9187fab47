package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/twostep/internal/pkg/stacktrace"
)

// dispatch runs handler, converts a panic into an error and applies auto-ack.
func dispatch(ctx context.Context, handler Handler, msg Message, autoAck bool) {
	err := func() (err error) {
		defer func() {
			rvr := recover()
			if rvr == nil {
				return
			}
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "subject", msg.Subject(), "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "subject", msg.Subject(), "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in handler: %v", rvr)
		}()
		return handler(ctx, msg)
	}()

	if !autoAck {
		return
	}
	if err != nil {
		_ = msg.Nack(ctx)
		return
	}
	_ = msg.Ack(ctx)
}
