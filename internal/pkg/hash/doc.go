// Package hash provides one-way digests for secrets.
//
// Bcrypt and Argon2id are slow salted hashes used for passwords and backup
// codes; HMACSHA256 is a fast keyed digest used where a deterministic lookup
// key is needed (for example replay markers) and the input must not be stored.
package hash
