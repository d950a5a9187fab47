// Package otp generates TOTP shared secrets and backup codes, and verifies
// submitted codes against a secret with a clock-drift window.
//
// Everything here is stateless. Attempt throttling and replay protection are
// layered by callers.
package otp
