package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	token, exp, err := IssueSessionToken("secret", "abc", time.Minute)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 2*time.Second)

	id, err := ParseSessionToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}

func TestSessionTokenRejections(t *testing.T) {
	token, _, err := IssueSessionToken("secret", "abc", time.Minute)
	require.NoError(t, err)

	_, err = ParseSessionToken("other", token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := IssueSessionToken("secret", "abc", -time.Minute)
	require.NoError(t, err)
	_, err = ParseSessionToken("secret", expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseSessionToken("secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{SessionID: "abc"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseSessionToken("secret", none)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = IssueSessionToken("", "abc", time.Minute)
	assert.Error(t, err)
}
