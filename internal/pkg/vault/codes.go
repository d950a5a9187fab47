package vault

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/twostep/internal/pkg/hash"
	"github.com/shandysiswandi/twostep/internal/pkg/otp"
)

// CodeHasher stores backup codes as one-way hashes.
type CodeHasher struct {
	h hash.Hash
}

// NewCodeHasher wraps a slow salted hash (bcrypt or argon2id).
func NewCodeHasher(h hash.Hash) *CodeHasher {
	return &CodeHasher{h: h}
}

func (c *CodeHasher) Hash(code string) (string, error) {
	b, err := c.h.Hash(otp.NormalizeBackupCode(code))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// HashAll hashes codes preserving their order.
func (c *CodeHasher) HashAll(codes []string) ([]string, error) {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		h, err := c.Hash(code)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (c *CodeHasher) Verify(code, hashed string) bool {
	code = otp.NormalizeBackupCode(code)
	if code == "" {
		return false
	}
	return c.h.Verify(hashed, code)
}

// Match returns the index of the first stored hash that code satisfies, or -1.
func (c *CodeHasher) Match(code string, hashes []string) int {
	_, idx, ok := lo.FindIndexOf(hashes, func(h string) bool {
		return c.Verify(code, h)
	})
	if !ok {
		return -1
	}
	return idx
}
