package utils

import (
	"greenbasket/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionTokenRoundTrip(t *testing.T) {
	session := NewSession(true)
	require.NotEmpty(t, session.ID)
	require.NotEmpty(t, session.CSRFToken)

	token, err := GenerateSessionToken(session, "secret", time.Hour)
	require.NoError(t, err)

	got, err := ValidateSessionToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.True(t, got.Wholesale)
	assert.Equal(t, session.CSRFToken, got.CSRFToken)
	assert.Equal(t, token, got.Token)
}

func TestValidateSessionToken_Rejects(t *testing.T) {
	session := NewSession(false)

	token, err := GenerateSessionToken(session, "secret", time.Hour)
	require.NoError(t, err)
	_, err = ValidateSessionToken(token, "other")
	assert.Error(t, err)

	expired, err := GenerateSessionToken(session, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateSessionToken(expired, "secret")
	assert.Error(t, err)

	_, err = ValidateSessionToken("not-a-token", "secret")
	assert.Error(t, err)

	_, err = GenerateSessionToken(models.Session{}, "secret", time.Hour)
	assert.Error(t, err)
}
