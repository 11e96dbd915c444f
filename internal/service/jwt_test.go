package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	a := NewAdminTokens("test-secret")
	tok, err := a.Generate("ops", time.Hour)
	require.NoError(t, err)

	sub, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)
}

func TestAdminTokenRejects(t *testing.T) {
	a := NewAdminTokens("test-secret")

	expired, err := a.Generate("ops", -time.Minute)
	require.NoError(t, err)
	_, err = a.Parse(expired)
	assert.Error(t, err)

	other, err := NewAdminTokens("other-secret").Generate("ops", time.Hour)
	require.NoError(t, err)
	_, err = a.Parse(other)
	assert.Error(t, err)

	// a valid signature without the admin role
	plain := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()})
	raw, err := plain.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = a.Parse(raw)
	assert.Error(t, err)

	var none *AdminTokens
	_, err = none.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Nil(t, NewAdminTokens(""))
}
