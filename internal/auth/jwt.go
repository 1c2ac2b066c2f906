package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"
)

var (
	// ErrMissingToken means no credential was presented.
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken means a credential was presented and rejected.
	ErrInvalidToken = errors.New("invalid token")
)

// Principal represents the authenticated caller from JWT.
type Principal struct {
	Username string
	IsAdmin  bool
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}

// Claims is the JWT payload.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 session tokens.
//
// Tokens carry no expiry unless a positive ttl is configured; without one
// they stay valid until the secret changes. Verification checks the
// signature only and never consults the user store.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer for secret. ttl <= 0 disables expiry.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for p.
func (i *Issuer) Issue(p Principal) (string, error) {
	now := i.now()
	c := Claims{
		Username: p.Username,
		IsAdmin:  p.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if i.ttl > 0 {
		c.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Verify validates tokenStr and returns its principal. Every failure wraps
// ErrInvalidToken.
func (i *Issuer) Verify(tokenStr string) (*Principal, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	c, _ := tok.Claims.(*Claims)
	if c == nil || c.Username == "" {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	return &Principal{Username: c.Username, IsAdmin: c.IsAdmin}, nil
}

// ParseBearer extracts the token from an Authorization header value.
// An absent header or an empty token is ErrMissingToken; any scheme other
// than Bearer is ErrInvalidToken.
func ParseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: unsupported authorization scheme", ErrInvalidToken)
	}
	return strings.TrimSpace(parts[1]), nil
}

// Authenticate parses and verifies an Authorization header value.
func (i *Issuer) Authenticate(header string) (*Principal, error) {
	tokenStr, err := ParseBearer(header)
	if err != nil {
		return nil, err
	}
	return i.Verify(tokenStr)
}

// ParseFromMD extracts and validates a Bearer JWT from gRPC metadata.
func (i *Issuer) ParseFromMD(ctx context.Context) (*Principal, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, ErrMissingToken
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return nil, ErrMissingToken
	}
	return i.Authenticate(vals[0])
}
