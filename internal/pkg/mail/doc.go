// Package mail sends security notifications. SMTP delivers real mail; Log
// writes messages to slog for local development.
package mail
