package inbound

import (
	"github.com/shandysiswandi/twostep/internal/identity/usecase"
	"github.com/shandysiswandi/twostep/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the login handoff and two-step enrollment.
type HTTPEndpoint struct {
	uc uc
}

// Login verifies the password and returns a session, or a token key when a
// second factor is required.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		TwoFactorRequired: resp.TwoFactorRequired,
		TokenKey:          resp.TokenKey,
		AccessToken:       resp.AccessToken,
		ExpiresAt:         resp.ExpiresAt,
	}, nil
}

// CompleteLogin exchanges a token key and a TOTP or backup code for a session.
func (h *HTTPEndpoint) CompleteLogin(r *router.Request) (any, error) {
	var req CompleteLoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.CompleteLogin(r.Context(), usecase.CompleteLoginInput{
		TokenKey: req.TokenKey,
		Code:     req.Code,
	})
	if err != nil {
		return nil, err
	}

	return CompleteLoginResponse{
		AccessToken: resp.AccessToken,
		ExpiresAt:   resp.ExpiresAt,
	}, nil
}

func (h *HTTPEndpoint) BeginEnrollment(r *router.Request) (any, error) {
	resp, err := h.uc.BeginEnrollment(r.Context())
	if err != nil {
		return nil, err
	}

	return BeginEnrollmentResponse{
		Secret:          resp.Secret,
		ProvisioningURI: resp.ProvisioningURI,
		QRCode:          resp.QRCode,
		BackupCodes:     resp.BackupCodes,
	}, nil
}

func (h *HTTPEndpoint) DiscardEnrollment(r *router.Request) (any, error) {
	if err := h.uc.DiscardEnrollment(r.Context()); err != nil {
		return nil, err
	}

	return DiscardEnrollmentResponse{}, nil
}

func (h *HTTPEndpoint) ConfirmEnrollment(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.ConfirmEnrollment(r.Context(), usecase.ConfirmEnrollmentInput{Code: req.Code}); err != nil {
		return nil, err
	}

	return ConfirmEnrollmentResponse{Verified: true}, nil
}

func (h *HTTPEndpoint) EnableEnrollment(r *router.Request) (any, error) {
	var req CodeRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.EnableEnrollment(r.Context(), usecase.EnableEnrollmentInput{Code: req.Code})
	if err != nil {
		return nil, err
	}

	return EnableEnrollmentResponse{Enabled: true, EnabledAt: resp.EnabledAt}, nil
}

func (h *HTTPEndpoint) GetEnrollmentStatus(r *router.Request) (any, error) {
	resp, err := h.uc.GetEnrollmentStatus(r.Context())
	if err != nil {
		return nil, err
	}

	return EnrollmentStatusResponse{
		State:                resp.State.String(),
		Enabled:              resp.Enabled,
		EnabledAt:            resp.EnabledAt,
		BackupCodesRemaining: resp.BackupCodesRemaining,
	}, nil
}

func (h *HTTPEndpoint) DisableEnrollment(r *router.Request) (any, error) {
	var req PasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	if err := h.uc.DisableEnrollment(r.Context(), usecase.DisableEnrollmentInput{Password: req.Password}); err != nil {
		return nil, err
	}

	return DisableEnrollmentResponse{Enabled: false}, nil
}

func (h *HTTPEndpoint) RegenerateBackupCodes(r *router.Request) (any, error) {
	var req PasswordRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.RegenerateBackupCodes(r.Context(), usecase.RegenerateBackupCodesInput{Password: req.Password})
	if err != nil {
		return nil, err
	}

	return BackupCodesResponse{BackupCodes: resp.BackupCodes}, nil
}

func (h *HTTPEndpoint) ResetEnrollment(r *router.Request) (any, error) {
	id, err := r.GetParamInt64("id")
	if err != nil {
		return nil, err
	}

	if err := h.uc.ResetEnrollment(r.Context(), usecase.ResetEnrollmentInput{AccountID: id}); err != nil {
		return nil, err
	}

	return ResetEnrollmentResponse{}, nil
}
