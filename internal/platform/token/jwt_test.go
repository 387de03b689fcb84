package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func TestValidateRoundTrip(t *testing.T) {
	signed, err := Sign(testKey, "staff-7", "Alicia Grant", time.Minute)
	require.NoError(t, err)

	claims, err := NewJWTValidator(testKey).ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "staff-7", claims.ActorID)
	assert.Equal(t, "Alicia Grant", claims.ActorName)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	signed, err := Sign(testKey, "staff-7", "Alicia Grant", time.Minute)
	require.NoError(t, err)

	_, err = NewJWTValidator([]byte("other-key")).ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateRejectsExpired(t *testing.T) {
	signed, err := Sign(testKey, "staff-7", "Alicia Grant", -time.Minute)
	require.NoError(t, err)

	_, err = NewJWTValidator(testKey).ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := NewJWTValidator(testKey).ValidateToken("not-a-token")
	assert.Error(t, err)
}
