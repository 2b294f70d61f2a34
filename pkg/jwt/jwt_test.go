package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour, "quickgrocery")

	token, err := m.GenerateToken("u1", "a@b.c", "Asha", "admin", "v1")
	require.NoError(t, err)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "v1", claims.TokenVersion)
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager("secret", time.Hour, "quickgrocery")
	token, err := m.GenerateToken("u1", "a@b.c", "Asha", "user", "v1")
	require.NoError(t, err)

	t.Run("empty", func(t *testing.T) {
		_, err := m.ValidateToken("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewManager("other", time.Hour, "quickgrocery")
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewManager("secret", time.Hour, "someone-else")
		_, err := other.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewManager("secret", time.Hour, "quickgrocery")
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
