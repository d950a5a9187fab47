// Package vault protects 2FA material at rest.
//
// TOTP secrets are sealed with AES-256-GCM under a versioned key ring and bound
// to their owner through additional authenticated data, so a blob copied onto
// another account does not open. Backup codes are stored only as slow salted
// hashes.
package vault
