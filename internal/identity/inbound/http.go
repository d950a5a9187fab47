package inbound

import (
	"context"

	"github.com/shandysiswandi/twostep/internal/identity/usecase"
	"github.com/shandysiswandi/twostep/internal/pkg/router"
)

type uc interface {
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	CompleteLogin(ctx context.Context, in usecase.CompleteLoginInput) (*usecase.CompleteLoginOutput, error)

	BeginEnrollment(ctx context.Context) (*usecase.BeginEnrollmentOutput, error)
	DiscardEnrollment(ctx context.Context) error
	ConfirmEnrollment(ctx context.Context, in usecase.ConfirmEnrollmentInput) error
	EnableEnrollment(ctx context.Context, in usecase.EnableEnrollmentInput) (*usecase.EnableEnrollmentOutput, error)
	GetEnrollmentStatus(ctx context.Context) (*usecase.GetEnrollmentStatusOutput, error)
	DisableEnrollment(ctx context.Context, in usecase.DisableEnrollmentInput) error
	RegenerateBackupCodes(ctx context.Context, in usecase.RegenerateBackupCodesInput) (*usecase.RegenerateBackupCodesOutput, error)

	ResetEnrollment(ctx context.Context, in usecase.ResetEnrollmentInput) error
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Login handoff
	r.POST("/api/v1/identity/login", end.Login)
	r.POST("/api/v1/identity/login/2fa", end.CompleteLogin) // authenticated by token key

	// Enrollment (need authenticated)
	r.POST("/api/v1/identity/2fa/setup", end.BeginEnrollment)
	r.DELETE("/api/v1/identity/2fa/setup", end.DiscardEnrollment)
	r.POST("/api/v1/identity/2fa/verify", end.ConfirmEnrollment)
	r.POST("/api/v1/identity/2fa/enable", end.EnableEnrollment)
	r.GET("/api/v1/identity/2fa/status", end.GetEnrollmentStatus)
	r.POST("/api/v1/identity/2fa/disable", end.DisableEnrollment)
	r.POST("/api/v1/identity/2fa/backup-codes", end.RegenerateBackupCodes)

	// Operators (need authenticated & authorization)
	r.POST("/api/v1/identity/accounts/:id/2fa/reset", end.ResetEnrollment)
}
