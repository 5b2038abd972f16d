package auth

import (
	"strings"
	"testing"
	"time"

	domainauth "github.com/I-Yanis-I/museum-app/internal/domain/auth"
	"github.com/I-Yanis-I/museum-app/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTokens(t *testing.T, c *clock) *Tokens {
	t.Helper()
	tk, err := New(Config{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		Now:           c.Now,
	})
	require.NoError(t, err)
	return tk
}

var visitor = domainauth.AccessInput{UserID: "7b1f0e52-4f7e-4a8e-9a55-4d3c2b1a0f99", Email: "a@x.com", Role: user.RoleVisitor}

func TestAccessToken_ValidUntilExpiry(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tk := newTokens(t, c)

	raw, err := tk.IssueAccessToken(visitor)
	require.NoError(t, err)

	c.now = c.now.Add(14 * time.Minute)
	claims, err := tk.VerifyAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, visitor.UserID, claims.UserID)

	c.now = c.now.Add(2 * time.Minute)
	_, err = tk.VerifyAccessToken(raw)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshToken_ExpiresAfterSevenDays(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tk := newTokens(t, c)

	raw, err := tk.IssueRefreshToken(visitor.UserID)
	require.NoError(t, err)

	c.now = c.now.Add(6 * 24 * time.Hour)
	claims, err := tk.VerifyRefreshToken(raw)
	require.NoError(t, err)
	assert.Equal(t, visitor.UserID, claims.UserID)

	c.now = c.now.Add(25 * time.Hour)
	_, err = tk.VerifyRefreshToken(raw)
	require.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestTokenPair_RoundTrip(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tk := newTokens(t, c)

	pair, err := tk.IssueTokenPair(visitor)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := tk.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, visitor.UserID, claims.UserID)
	assert.Equal(t, visitor.Email, claims.Email)
	assert.Equal(t, visitor.Role, claims.Role)
	assert.Equal(t, DefaultIssuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{DefaultAudience}, claims.Audience)
	assert.Equal(t, c.now.Add(DefaultAccessTTL).Unix(), claims.ExpiresAt.Unix())

	refresh, err := tk.VerifyRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, visitor.UserID, refresh.UserID)
}

func TestTokens_SecretsAreNotInterchangeable(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tk := newTokens(t, c)

	pair, err := tk.IssueTokenPair(visitor)
	require.NoError(t, err)

	_, err = tk.VerifyAccessToken(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = tk.VerifyRefreshToken(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestVerifyAccessToken_RejectsForeignIssuerAndAudience(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tk := newTokens(t, c)

	other, err := New(Config{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		Issuer:        "someone-else",
		Audience:      "another-api",
		Now:           c.Now,
	})
	require.NoError(t, err)

	raw, err := other.IssueAccessToken(visitor)
	require.NoError(t, err)

	_, err = tk.VerifyAccessToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessToken_RejectsOtherAlgorithms(t *testing.T) {
	c := &clock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	tk := newTokens(t, c)

	claims := domainauth.AccessClaims{
		UserID:           visitor.UserID,
		RegisteredClaims: tk.registered(visitor.UserID, time.Minute),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tk.VerifyAccessToken(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	tk := newTokens(t, &clock{now: time.Now()})

	for _, raw := range []string{"", "abc", "a.b.c", strings.Repeat("x", 64)} {
		_, err := tk.VerifyAccessToken(raw)
		assert.ErrorIs(t, err, ErrInvalidToken, raw)
	}
}

func TestTokens_MissingSecret(t *testing.T) {
	tk, err := New(Config{})
	require.NoError(t, err)

	_, err = tk.IssueAccessToken(visitor)
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = tk.IssueRefreshToken(visitor.UserID)
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = tk.IssueTokenPair(visitor)
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = tk.VerifyAccessToken("a.b.c")
	require.ErrorIs(t, err, ErrConfiguration)
	_, err = tk.VerifyRefreshToken("a.b.c")
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestNew_RejectsSharedSecret(t *testing.T) {
	_, err := New(Config{AccessSecret: []byte("same"), RefreshSecret: []byte("same")})
	require.ErrorIs(t, err, ErrConfiguration)
}
