package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := GenerateToken(42, "admin")
	require.NoError(t, err)

	claims, err := ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "shopfront", claims.Issuer)
}

func TestValidateTokenRejects(t *testing.T) {
	secret, _ := key(nil)
	cases := map[string]struct {
		token string
		want  error
	}{
		"expired": {sign(t, jwt.SigningMethodHS256, secret, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		}}), jwt.ErrTokenExpired},
		"no expiry": {sign(t, jwt.SigningMethodHS256, secret, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: issuer,
		}}), jwt.ErrTokenRequiredClaimMissing},
		"foreign issuer": {sign(t, jwt.SigningMethodHS256, secret, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: "elsewhere", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}), jwt.ErrTokenInvalidIssuer},
		"other algorithm": {sign(t, jwt.SigningMethodHS512, secret, Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}), jwt.ErrTokenSignatureInvalid},
		"wrong key": {sign(t, jwt.SigningMethodHS256, []byte("not-the-secret"), Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{
			Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}), jwt.ErrTokenSignatureInvalid},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("password")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "password"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
