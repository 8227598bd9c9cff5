package security

import (
	"errors"
	"testing"
	"time"
)

func TestGuardianTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()

	token, err := MintGuardianToken(secret, "parent-1", now)
	if err != nil {
		t.Fatalf("MintGuardianToken() error = %v", err)
	}

	userID, err := VerifyGuardianToken(secret, token)
	if err != nil {
		t.Fatalf("VerifyGuardianToken() error = %v", err)
	}
	if userID != "parent-1" {
		t.Errorf("subject = %q, want parent-1", userID)
	}
}

func TestGuardianTokenWrongSecret(t *testing.T) {
	now := time.Now()
	token, err := MintGuardianToken([]byte("secret-a"), "parent-1", now)
	if err != nil {
		t.Fatalf("MintGuardianToken() error = %v", err)
	}

	if _, err := VerifyGuardianToken([]byte("secret-b"), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyGuardianToken() error = %v, want ErrInvalidToken", err)
	}
}

func TestGuardianTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	issued := time.Now().Add(-GuardianTokenTTL - time.Minute)

	token, err := MintGuardianToken(secret, "parent-1", issued)
	if err != nil {
		t.Fatalf("MintGuardianToken() error = %v", err)
	}

	if _, err := VerifyGuardianToken(secret, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyGuardianToken(expired) error = %v, want ErrInvalidToken", err)
	}
}

func TestIssuerSeparation(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Now()

	userToken, err := MintUserToken(secret, "student-1", now, time.Hour)
	if err != nil {
		t.Fatalf("MintUserToken() error = %v", err)
	}

	// An auth token must not open the guardian gate.
	if _, err := VerifyGuardianToken(secret, userToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyGuardianToken(user token) error = %v, want ErrInvalidToken", err)
	}

	if userID, err := VerifyUserToken(secret, userToken); err != nil || userID != "student-1" {
		t.Errorf("VerifyUserToken() = %q, %v, want student-1", userID, err)
	}
}
