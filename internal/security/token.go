package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// GuardianTokenTTL bounds how long a successful PIN verification keeps
// the settings screens unlocked. Verification is a session-scoped gate,
// not a per-write gate.
const GuardianTokenTTL = 10 * time.Minute

const (
	userIssuer     = "thinkfirst-auth"
	guardianIssuer = "thinkfirst-guardian"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// MintGuardianToken issues a short-lived token proving a recent
// successful PIN verification for userID.
func MintGuardianToken(secret []byte, userID string, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    guardianIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(GuardianTokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign guardian token: %w", err)
	}
	return signed, nil
}

// VerifyGuardianToken checks a guardian token and returns the user id
// it was issued for.
func VerifyGuardianToken(secret []byte, tokenString string) (string, error) {
	return verifyToken(secret, tokenString, guardianIssuer)
}

// VerifyUserToken checks a bearer token issued by the identity provider
// and returns the authenticated user id. Who that identity actually
// belongs to is the provider's problem, not ours.
func VerifyUserToken(secret []byte, tokenString string) (string, error) {
	return verifyToken(secret, tokenString, userIssuer)
}

// MintUserToken issues an auth token the way the identity provider
// does. Exists for tests and local development.
func MintUserToken(secret []byte, userID string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    userIssuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign user token: %w", err)
	}
	return signed, nil
}

func verifyToken(secret []byte, tokenString, issuer string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
