// Package cache holds the scratch state of enrollment: pending enrollments
// and recently accepted TOTP codes. Nothing here is durable.
package cache

import (
	"context"
	"errors"
	"strconv"

	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefixPending = "identity:2fa:pending:"
	keyPrefixUsed    = "identity:2fa:used:"
)

func pendingKey(accountID int64) string {
	return keyPrefixPending + strconv.FormatInt(accountID, 10)
}

type tracer struct {
	ins instrument.Instrumentation
}

func (t tracer) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return t.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

func (t tracer) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
