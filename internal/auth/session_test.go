package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-chars-long-for-security"

func TestManager_IssueAndVerify(t *testing.T) {
	m := NewManager(testSecret, "registers-test", time.Hour)

	token, err := m.Issue("steve@example.com", "Steve Braddock", "admin")
	require.NoError(t, err)

	s, err := m.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "steve@example.com", s.Subject)
	assert.Equal(t, "Steve Braddock", s.Actor())
	assert.Equal(t, "admin", s.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, 5*time.Second)
}

func TestManager_IssueRequiresSubject(t *testing.T) {
	_, err := NewManager(testSecret, "x", time.Hour).Issue("", "", "")
	assert.Error(t, err)
}

func TestManager_VerifyRejects(t *testing.T) {
	m := NewManager(testSecret, "registers-test", time.Hour)
	good, err := m.Issue("alex", "", "")
	require.NoError(t, err)

	expired := NewManager(testSecret, "registers-test", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue("alex", "", "")
	require.NoError(t, err)

	otherIssuer, err := NewManager(testSecret, "someone-else", time.Hour).Issue("alex", "", "")
	require.NoError(t, err)

	forged, err := NewManager("a-completely-different-secret-value!!", "registers-test", time.Hour).Issue("alex", "", "")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alex",
		Issuer:    "registers-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", old},
		{"wrong issuer", otherIssuer},
		{"wrong secret", forged},
		{"alg none", none},
		{"garbage", "not.a.token"},
		{"truncated", good[:len(good)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}

	_, err = m.Verify("")
	assert.ErrorIs(t, err, ErrSessionRequired)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, TokenFromRequest(r))

	r.AddCookie(&http.Cookie{Name: CookieName, Value: "from-cookie"})
	assert.Equal(t, "from-cookie", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer from-header")
	assert.Equal(t, "from-header", TokenFromRequest(r))

	r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, TokenFromRequest(r), "a non-bearer header does not fall back to the cookie")
}

func TestSessionContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithSession(context.Background(), Session{Subject: "alex"})
	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "alex", s.Actor())
}
