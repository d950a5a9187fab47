// Package clock provides a tiny time abstraction.
//
// Business code depends on Clocker instead of calling time.Now directly, so TOTP
// windows, token expiry and pending-enrollment TTLs can be driven by a Fixed
// clock in tests.
package clock
