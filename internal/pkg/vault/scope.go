package vault

import (
	"crypto/sha256"
	"strconv"
)

// Purpose separates blobs encrypted for different uses.
type Purpose string

const PurposeTOTPSecret Purpose = "totp_secret"

// Scope binds a blob to its owner and purpose through GCM additional data.
type Scope struct {
	AccountID int64
	Purpose   Purpose
}

// aad hashes a labelled canonical form so the AAD has fixed length and no
// separator ambiguity.
func (s Scope) aad() []byte {
	sum := sha256.Sum256([]byte("account=" + strconv.FormatInt(s.AccountID, 10) + "\npurpose=" + string(s.Purpose) + "\n"))
	return sum[:]
}
