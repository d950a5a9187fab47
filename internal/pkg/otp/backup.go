package otp

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// BackupAlphabet is uppercase alphanumerics without 0/O and 1/I, so codes
// survive being read aloud or copied from paper.
const BackupAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	DefaultBackupCodeCount  = 10
	DefaultBackupCodeLength = 8
)

// ErrBackupCodeShape is returned when count or length is not positive.
var ErrBackupCodeShape = errors.New("otp: backup code count and length must be positive")

// BackupCodeGenerator produces one-time recovery codes.
type BackupCodeGenerator interface {
	Generate(count, length int) ([]string, error)
}

// BackupCodes draws codes uniformly from BackupAlphabet using crypto/rand.
type BackupCodes struct{}

func NewBackupCodes() *BackupCodes {
	return &BackupCodes{}
}

// Generate returns count distinct codes of length characters each.
func (*BackupCodes) Generate(count, length int) ([]string, error) {
	if count <= 0 || length <= 0 {
		return nil, ErrBackupCodeShape
	}

	out := make([]string, 0, count)
	seen := make(map[string]struct{}, count)

	for len(out) < count {
		code, err := randomString(length)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}

		seen[code] = struct{}{}
		out = append(out, code)
	}

	return out, nil
}

// NormalizeBackupCode uppercases a submitted code and strips the spaces and
// hyphens users add when copying.
func NormalizeBackupCode(code string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == ' ' || r == '-' || r == '\t':
			return -1
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		default:
			return r
		}
	}, code)
}

// IsBackupCode reports whether an already normalized code has the given length
// and only uses BackupAlphabet characters.
func IsBackupCode(code string, length int) bool {
	if length <= 0 || len(code) != length {
		return false
	}
	for i := range len(code) {
		if strings.IndexByte(BackupAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

func randomString(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)

	limit := big.NewInt(int64(len(BackupAlphabet)))
	for range n {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		sb.WriteByte(BackupAlphabet[idx.Int64()])
	}

	return sb.String(), nil
}
