// Package auth issues and verifies the bearer tokens that gate the admin
// endpoints. There is exactly one principal: the admin credential pair read
// from the environment at boot.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	AdminUserID = "admin1"
	RoleAdmin   = "admin"

	// TokenTTL is how long an issued token is accepted.
	TokenTTL = 2 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingToken       = errors.New("missing bearer token")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Claims is the token payload and the principal attached to authorized requests.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator holds the admin credential and the signing secret.
type Authenticator struct {
	adminEmail    string
	adminPassword string
	secret        []byte
	now           func() time.Time
}

func NewAuthenticator(adminEmail, adminPassword, secret string) *Authenticator {
	return &Authenticator{
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
		secret:        []byte(secret),
		now:           time.Now,
	}
}

// Login checks the credential pair against the configured admin and returns a
// signed token on match.
func (a *Authenticator) Login(email, password string) (string, error) {
	if !equalHashed(email, a.adminEmail) || !equalHashed(password, a.adminPassword) {
		return "", ErrInvalidCredentials
	}
	return a.Issue()
}

// Issue signs a token for the admin principal.
func (a *Authenticator) Issue() (string, error) {
	now := a.now()
	claims := Claims{
		UserID: AdminUserID,
		Email:  a.adminEmail,
		Role:   RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminUserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the decoded principal.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Authorize extracts and verifies the bearer token of r.
func (a *Authenticator) Authorize(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return nil, ErrMissingToken
	}
	return a.Verify(strings.TrimSpace(token))
}

// equalHashed compares two strings in constant time regardless of length.
func equalHashed(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1
}

type contextKey struct{}

// WithPrincipal returns a copy of ctx carrying claims.
func WithPrincipal(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, claims)
}

// PrincipalFromContext returns the principal attached by the middleware, if any.
func PrincipalFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}
