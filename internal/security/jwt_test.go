package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *TokenManager {
	return NewTokenManager("testsecret", "agriconnect", time.Hour, 24*time.Hour, 15*time.Minute)
}

func TestTokenPair_RoundTrip(t *testing.T) {
	m := newTestManager()
	user := &models.User{ID: 42, Role: models.RoleFarmer}

	pair, err := m.NewTokenPair(user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.NotEqual(t, pair.Access, pair.Refresh)

	claims, err := m.Parse(pair.Access, TokenAccess)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, models.RoleFarmer, claims.Role)
	assert.NotEmpty(t, claims.ID)

	_, err = m.Parse(pair.Refresh, TokenRefresh)
	assert.NoError(t, err)
}

func TestParse_WrongType(t *testing.T) {
	m := newTestManager()
	pair, err := m.NewTokenPair(&models.User{ID: 1, Role: models.RoleBuyer})
	require.NoError(t, err)

	// refresh нельзя использовать как access и наоборот
	_, err = m.Parse(pair.Refresh, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = m.Parse(pair.Access, TokenRefresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParse_Expired(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err := m.NewTokenPair(&models.User{ID: 1, Role: models.RoleBuyer})
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.Parse(pair.Access, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.ErrorIs(t, err, models.ErrUnauthenticated)
}

func TestParse_WrongSecret(t *testing.T) {
	pair, err := newTestManager().NewTokenPair(&models.User{ID: 1, Role: models.RoleBuyer})
	require.NoError(t, err)

	other := NewTokenManager("othersecret", "agriconnect", time.Hour, time.Hour, time.Hour)
	_, err = other.Parse(pair.Access, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParse_RejectsNoneAlgorithm(t *testing.T) {
	m := newTestManager()
	claims := Claims{Type: TokenAccess, RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    "agriconnect",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.Parse(tokenStr, TokenAccess)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestResetToken_Fingerprint(t *testing.T) {
	m := newTestManager()
	user := &models.User{ID: 7, PassHash: []byte("old-hash")}

	token, err := m.NewResetToken(user)
	require.NoError(t, err)

	claims, err := m.Parse(token, TokenReset)
	require.NoError(t, err)
	assert.Equal(t, PasswordFingerprint([]byte("old-hash")), claims.Fingerprint)
	assert.NotEqual(t, PasswordFingerprint([]byte("new-hash")), claims.Fingerprint)
}

func TestClaims_UserID_Invalid(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}}
	_, err := c.UserID()
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
