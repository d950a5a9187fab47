package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")
	ErrSigningKeyTooShort   = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")
	ErrUnknownTokenType     = errors.New("no lifetime configured for token type")

	// ErrTokenExpired is returned only for a correctly signed token of the
	// requested type whose exp has passed.
	ErrTokenExpired = errors.New("JWT token has expired")
	// ErrInvalidToken covers malformed tokens, bad signatures and wrong claims.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongTokenType is an ErrInvalidToken whose typ claim did not match.
	ErrWrongTokenType = fmt.Errorf("%w: unexpected token type", ErrInvalidToken)
)

// TokenType is the purpose claim of a token.
type TokenType string

const (
	// TypeSession is the full authenticated credential.
	TypeSession TokenType = "session"
	// TypeTokenKey asserts only that the password step succeeded.
	TypeTokenKey TokenType = "2fa-token-key"
)

// JWT issues and verifies typed tokens.
type JWT interface {
	Issue(typ TokenType, accountID int64, label string) (Token, error)
	Verify(tokenStr string, typ TokenType) (Claims, error)
}

// Token is a signed token with its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	// TTL is the lifetime per token type; issuing an unlisted type fails.
	TTL   map[TokenType]time.Duration
	Clock clocker
	UUID  generator
}

// Claims wraps the registered claims with the account payload.
type Claims struct {
	jwt.RegisteredClaims
	Type      TokenType `json:"typ"`
	AccountID int64     `json:"account_id,string"`
	Label     string    `json:"label,omitempty"`
}

type authContextKey struct{}

// GetAuth returns the session claims stored in ctx, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(authContextKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

// SetAuth stores session claims in ctx.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, authContextKey{}, clm)
}
