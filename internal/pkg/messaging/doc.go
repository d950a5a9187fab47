// Package messaging publishes and consumes subject-addressed messages.
//
// NATS is the production broker. Memory is an in-process broker with the
// same queue-group semantics, used when no broker is configured and in tests.
package messaging
