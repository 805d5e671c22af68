package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	exp := time.Now().Add(15 * time.Minute).UTC()

	token, err := SignAccessToken("42", "admin", exp, secret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := AccessClaimsFromToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessClaimsFromToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := SignAccessToken("42", "user", time.Now().Add(time.Minute), []byte("secret-a"))
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, []byte("secret-b"))
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestAccessClaimsFromToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("test-jwt-secret")
	token, err := SignAccessToken("42", "user", time.Now().Add(-time.Minute), secret)
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, secret)
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestAccessClaimsFromToken_Garbage(t *testing.T) {
	t.Parallel()

	claims, err := AccessClaimsFromToken("not-a-jwt", []byte("test-jwt-secret"))
	require.Error(t, err)
	assert.Nil(t, claims)
}

func TestNewRefreshToken_OpaqueAndUnique(t *testing.T) {
	t.Parallel()

	a, err := NewRefreshToken()
	require.NoError(t, err)
	b, err := NewRefreshToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
