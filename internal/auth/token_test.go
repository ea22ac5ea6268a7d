package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return token
}

func TestExpiresAt(t *testing.T) {
	t.Parallel()

	exp := time.Unix(1_900_000_000, 0)
	got, ok := ExpiresAt(sign(t, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()}))
	require.True(t, ok)
	require.True(t, exp.Equal(got))

	_, ok = ExpiresAt(sign(t, jwt.MapClaims{"sub": "u1"}))
	require.False(t, ok)

	_, ok = ExpiresAt("opaque-token")
	require.False(t, ok)
}

func TestExpiringSoon(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_800_000_000, 0)
	token := sign(t, jwt.MapClaims{"exp": now.Add(10 * time.Minute).Unix()})

	soon, err := ExpiringSoon(token, time.Minute, now)
	require.NoError(t, err)
	require.False(t, soon)

	soon, err = ExpiringSoon(token, time.Hour, now)
	require.NoError(t, err)
	require.True(t, soon)

	expired := sign(t, jwt.MapClaims{"exp": now.Add(-time.Minute).Unix()})
	soon, err = ExpiringSoon(expired, 0, now)
	require.NoError(t, err)
	require.True(t, soon)

	soon, err = ExpiringSoon("opaque", time.Hour, now)
	require.NoError(t, err)
	require.False(t, soon)

	_, err = ExpiringSoon("  ", time.Hour, now)
	require.ErrorIs(t, err, ErrEmptyToken)
}
