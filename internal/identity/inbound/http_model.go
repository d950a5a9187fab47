package inbound

import "time"

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	TwoFactorRequired bool      `json:"two_factor_required"`
	TokenKey          string    `json:"token_key,omitempty"`
	AccessToken       string    `json:"access_token,omitempty"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type CompleteLoginRequest struct {
	TokenKey string `json:"token_key"`
	Code     string `json:"code"`
}

type CompleteLoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type BeginEnrollmentResponse struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	QRCode          string   `json:"qr_code,omitempty"`
	BackupCodes     []string `json:"backup_codes"`
}

func (BeginEnrollmentResponse) Message() string {
	return "Scan the QR code and store the backup codes. They will not be shown again."
}

type DiscardEnrollmentResponse struct{}

func (DiscardEnrollmentResponse) Message() string {
	return "Pending two-step setup discarded."
}

type CodeRequest struct {
	Code string `json:"code"`
}

type ConfirmEnrollmentResponse struct {
	Verified bool `json:"verified"`
}

func (ConfirmEnrollmentResponse) Message() string {
	return "Code verified."
}

type EnableEnrollmentResponse struct {
	Enabled   bool      `json:"enabled"`
	EnabledAt time.Time `json:"enabled_at"`
}

func (EnableEnrollmentResponse) Message() string {
	return "Two-step verification enabled."
}

type EnrollmentStatusResponse struct {
	State                string     `json:"state"`
	Enabled              bool       `json:"enabled"`
	EnabledAt            *time.Time `json:"enabled_at"`
	BackupCodesRemaining int        `json:"backup_codes_remaining"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type DisableEnrollmentResponse struct {
	Enabled bool `json:"enabled"`
}

func (DisableEnrollmentResponse) Message() string {
	return "Two-step verification disabled."
}

type BackupCodesResponse struct {
	BackupCodes []string `json:"backup_codes"`
}

func (BackupCodesResponse) Message() string {
	return "New backup codes generated. Previous codes no longer work."
}

type ResetEnrollmentResponse struct{}

func (ResetEnrollmentResponse) Message() string {
	return "Two-step verification reset."
}
