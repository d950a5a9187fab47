package otp

import (
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// DefaultPeriod is the TOTP step size in seconds.
	DefaultPeriod uint = 30
	// DefaultSecretSize is the number of random secret bytes (160 bits).
	DefaultSecretSize uint = 20
	// DefaultWindow accepts one step either side of now (±30s drift).
	DefaultWindow uint = 1
)

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate creates a fresh base32 secret and its provisioning URI for label.
	Generate(label string) (secret string, uri string, err error)
	// Verify reports whether code matches secret at any step in
	// [at-windowSteps, at+windowSteps]. Malformed input fails closed.
	Verify(code, secret string, at time.Time, windowSteps uint) bool
	// GenerateCode computes the code for secret at the given time.
	GenerateCode(secret string, at time.Time) (string, error)
}

// TOTP implements OTP with RFC 6238 over HMAC-SHA1.
type TOTP struct {
	issuer     string
	period     uint
	secretSize uint
	digits     otp.Digits
}

// NewTOTP constructs a TOTP. digits other than 6 or 8 fall back to 6, a zero
// period to 30 seconds, and a secretSize under 20 bytes to 20.
func NewTOTP(issuer string, period, secretSize uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}
	if period == 0 {
		period = DefaultPeriod
	}
	if secretSize < DefaultSecretSize {
		secretSize = DefaultSecretSize
	}

	return &TOTP{
		issuer:     issuer,
		period:     period,
		secretSize: secretSize,
		digits:     digits,
	}
}

func (o *TOTP) Generate(label string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: label,
		Period:      o.period,
		SecretSize:  o.secretSize,
		Digits:      o.digits,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), o.ProvisioningURI(label, key.Secret()), nil
}

// ProvisioningURI renders otpauth://totp/{issuer}:{label}?secret={secret}&issuer={issuer}
// with issuer and label percent-encoded as URI components.
func (o *TOTP) ProvisioningURI(label, secret string) string {
	issuer := escapeComponent(o.issuer)
	return "otpauth://totp/" + issuer + ":" + escapeComponent(label) +
		"?secret=" + secret + "&issuer=" + issuer
}

// componentUnescape restores the marks a URI component leaves literal.
var componentUnescape = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// escapeComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ),
// so ':' '@' '&' '=' '+' and '/' never leak into the URI structure.
func escapeComponent(s string) string {
	return componentUnescape.Replace(url.QueryEscape(s))
}

func (o *TOTP) Verify(code, secret string, at time.Time, windowSteps uint) bool {
	if code == "" || secret == "" {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, at, o.opts(windowSteps))
	return ok && err == nil
}

func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, at, o.opts(0))
}

func (o *TOTP) opts(skew uint) totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    o.period,
		Skew:      skew,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	}
}
