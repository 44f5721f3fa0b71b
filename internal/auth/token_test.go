package auth

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	userID := uuid.Must(uuid.NewV4())

	token, err := tm.Issue(userID, "user@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestTokenTamperedSignature(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	token, err := tm.Issue(uuid.Must(uuid.NewV4()), "user@example.com")
	require.NoError(t, err)

	last := token[len(token)-1]
	flipped := byte('A')
	if last == flipped {
		flipped = 'B'
	}
	tampered := token[:len(token)-1] + string(flipped)

	_, err = tm.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	other, err := NewTokenManager("other-secret", time.Hour)
	require.NoError(t, err)

	token, err := tm.Issue(uuid.Must(uuid.NewV4()), "user@example.com")
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Millisecond)
	require.NoError(t, err)

	token, err := tm.Issue(uuid.Must(uuid.NewV4()), "user@example.com")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenMalformed(t *testing.T) {
	tm, err := NewTokenManager("test-secret", time.Hour)
	require.NoError(t, err)

	_, err = tm.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenManagerRejectsEmptySecret(t *testing.T) {
	_, err := NewTokenManager("", time.Hour)
	assert.Error(t, err)
}
