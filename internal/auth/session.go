// Package auth verifies the signed session tokens that gate the API.
//
// Sign-in is handled elsewhere; this package only checks HS256 tokens
// issued with the shared SESSION_JWT_SECRET and exposes the session on the
// request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrSessionRequired is returned when a request carries no token.
	ErrSessionRequired = errors.New("session required")

	// ErrInvalidSession is returned for malformed, expired or forged tokens.
	ErrInvalidSession = errors.New("invalid session")
)

// CookieName is the cookie checked when no Authorization header is sent.
const CookieName = "registers_session"

// Session is the verified identity behind a request.
type Session struct {
	Subject   string    `json:"subject"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Actor returns the name used in mutation logs.
func (s Session) Actor() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Subject
}

// sessionClaims extends standard JWT claims with display name and role.
type sessionClaims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
}

// Manager issues and verifies session tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a token manager. secret should be at least 32 bytes.
func NewManager(secret, issuer string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue creates a signed HS256 token for subject.
func (m *Manager) Issue(subject, name, role string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}
	now := m.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		Name: name,
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token. Every failure wraps
// ErrSessionRequired or ErrInvalidSession.
func (m *Manager) Verify(token string) (Session, error) {
	if token == "" {
		return Session{}, ErrSessionRequired
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{},
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: bad claims", ErrInvalidSession)
	}

	return Session{
		Subject:   claims.Subject,
		Name:      claims.Name,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// TokenFromRequest returns the bearer token from the Authorization header,
// or the session cookie when there is no header.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

type contextKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
