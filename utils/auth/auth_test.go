package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestManager(expiry time.Duration) *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        expiry,
		RefreshExpiry: time.Hour,
		Issuer:        "college-admin-api-test",
	})
}

func TestHashPasswordUsesCostTen(t *testing.T) {
	hash, err := HashPassword("Admin@123")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)

	assert.NoError(t, VerifyPassword(hash, "Admin@123"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong-password"), ErrPasswordMismatch)

	_, err = HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestNeedsRehash(t *testing.T) {
	hash, err := HashPassword("Admin@123")
	require.NoError(t, err)
	assert.False(t, NeedsRehash(hash))

	cheap, err := bcrypt.GenerateFromPassword([]byte("Admin@123"), bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, NeedsRehash(string(cheap)))
	assert.True(t, NeedsRehash("not-a-hash"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(time.Hour)

	token, jti, err := m.Sign(Principal{ID: 7, Email: "root@college.edu", Role: "super_admin", TokenVersion: 2}, TokenTypeAccess)
	require.NoError(t, err)

	claims, err := m.Parse(token, TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "super_admin", claims.Role)
	assert.Equal(t, 2, claims.TokenVersion)
	assert.Equal(t, jti, claims.ID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiry(), 5*time.Second)
}

func TestParseRejectsExpiredAndForeignTokens(t *testing.T) {
	p := Principal{ID: 1, Email: "a@x.com", Role: "super_admin"}

	expired := newTestManager(-time.Minute)
	token, _, err := expired.Sign(p, TokenTypeAccess)
	require.NoError(t, err)
	_, err = expired.Parse(token, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := NewJWTManager(JWTConfig{Secret: "other", Expiry: time.Hour, Issuer: "college-admin-api-test"})
	foreign, _, err := other.Sign(p, TokenTypeAccess)
	require.NoError(t, err)
	_, err = newTestManager(time.Hour).Parse(foreign, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = newTestManager(time.Hour).Parse("not.a.token", TokenTypeAccess)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssuePair(t *testing.T) {
	m := newTestManager(15 * time.Minute)

	pair, err := m.IssuePair(Principal{ID: 3, Email: "a@x.com", Role: "super_admin", TokenVersion: 1})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, pair.ExpiresIn)

	refresh, err := m.Parse(pair.RefreshToken, TokenTypeRefresh)
	require.NoError(t, err)
	assert.Equal(t, 1, refresh.TokenVersion)
	assert.WithinDuration(t, time.Now().Add(time.Hour), refresh.Expiry(), 5*time.Second)

	// neither token stands in for the other
	_, err = m.Parse(pair.RefreshToken, TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)
	_, err = m.Parse(pair.AccessToken, TokenTypeRefresh)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}
