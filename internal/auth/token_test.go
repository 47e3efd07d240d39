package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret-do-not-use", time.Hour)

	token, expiresIn, err := svc.Issue(42, "applicant")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int64(3600), expiresIn)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "applicant", claims.Username)
	assert.Equal(t, "applymate", claims.Issuer)
}

func TestTokenVerifyRejectsGarbage(t *testing.T) {
	svc := NewTokenService("test-secret-do-not-use", time.Hour)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "not a jwt", token: "this-is-not-a-token"},
		{name: "unsigned", token: "eyJhbGciOiJub25lIn0.eyJ1c2VyX2lkIjo0Mn0."},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Verify(tc.token)
			assert.Error(t, err)
		})
	}
}

func TestTokenVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-one", time.Hour)
	verifier := NewTokenService("secret-two", time.Hour)

	token, _, err := issuer.Issue(1, "someone")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestTokenVerifyRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-secret-do-not-use", -time.Minute)

	token, _, err := svc.Issue(7, "expired")
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.Error(t, err)
}
