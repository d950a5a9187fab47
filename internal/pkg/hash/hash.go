package hash

// Hash produces and checks one-way digests of secrets.
type Hash interface {
	// Hash returns the encoded digest of plaintext.
	Hash(plaintext string) ([]byte, error)
	// Verify reports whether plaintext matches hashed. It never panics on
	// malformed input; a digest it cannot parse simply does not match.
	Verify(hashed, plaintext string) bool
}

var (
	_ Hash = (*Bcrypt)(nil)
	_ Hash = (*Argon2id)(nil)
	_ Hash = (*HMACSHA256)(nil)
)
