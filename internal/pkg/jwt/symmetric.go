package jwt

import (
	"errors"
	"maps"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

// Symmetric implements JWT with HS512.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       map[TokenType]time.Duration
	clock     clocker
	uuid      generator
	parser    *libJWT.Parser
}

// NewHS512 constructs a Symmetric JWT implementation using HS512.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < 64 {
		return nil, ErrSigningKeyTooShort
	}

	return &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       maps.Clone(cfg.TTL),
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
		parser: libJWT.NewParser(
			libJWT.WithIssuer(cfg.Issuer),
			libJWT.WithAudience(cfg.Audiences...),
			libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
			libJWT.WithIssuedAt(),
			libJWT.WithExpirationRequired(),
			libJWT.WithTimeFunc(cfg.Clock.Now),
		),
	}, nil
}

func (s *Symmetric) Issue(typ TokenType, accountID int64, label string) (Token, error) {
	ttl, ok := s.ttl[typ]
	if !ok || ttl <= 0 {
		return Token{}, ErrUnknownTokenType
	}

	now := s.clock.Now()
	exp := now.Add(ttl)

	signed, err := libJWT.NewWithClaims(libJWT.SigningMethodHS512, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(accountID, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(exp),
		},
		Type:      typ,
		AccountID: accountID,
		Label:     label,
	}).SignedString(s.secret)
	if err != nil {
		return Token{}, err
	}

	return Token{Value: signed, ExpiresAt: exp}, nil
}

func (s *Symmetric) Verify(tokenStr string, typ TokenType) (Claims, error) {
	var claims Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &claims, func(t *libJWT.Token) (any, error) {
		if t.Method != libJWT.SigningMethodHS512 {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	})

	// Claims are only populated past signature verification, so an expired
	// token can still be told apart by type.
	if err != nil {
		if errors.Is(err, libJWT.ErrTokenExpired) {
			if claims.Type != typ {
				return Claims{}, ErrWrongTokenType
			}
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}

	if !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Type != typ {
		return Claims{}, ErrWrongTokenType
	}
	if claims.AccountID <= 0 || claims.Subject != strconv.FormatInt(claims.AccountID, 10) {
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
