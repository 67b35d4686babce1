// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shashiranjanraj/shopfront/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer   = "shopfront"
	tokenTTL = 24 * time.Hour
	leeway   = 30 * time.Second
)

// Claims is the access token payload. Subject mirrors UserID so generic
// JWT tooling can read it.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

var parser = jwt.NewParser(
	jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	jwt.WithIssuer(issuer),
	jwt.WithExpirationRequired(),
	jwt.WithLeeway(leeway),
)

func key(*jwt.Token) (any, error) { return []byte(config.JWTSecret()), nil }

// GenerateToken signs an HS256 access token valid for a day.
func GenerateToken(userID uint, role string) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	})
	return tok.SignedString([]byte(config.JWTSecret()))
}

// ValidateToken checks signature, algorithm, issuer and expiry.
func ValidateToken(raw string) (*Claims, error) {
	claims := new(Claims)
	if _, err := parser.ParseWithClaims(raw, claims, key); err != nil {
		return nil, err
	}
	return claims, nil
}

// HashPassword bcrypts plain at the default cost.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
