package inbound

import (
	"context"

	"github.com/shandysiswandi/twostep/internal/notification/usecase"
)

type uc interface {
	ConsumeSecurityEvent(ctx context.Context, in usecase.ConsumeSecurityEventInput) error
}
