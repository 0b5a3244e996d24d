package auth

import (
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "password123" {
		t.Fatal("hash equals plaintext")
	}

	if !CheckPassword(hash, "password123") {
		t.Error("expected correct password to verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Error("expected wrong password to fail")
	}
}

func TestTokenRoundtrip(t *testing.T) {
	token, err := GenerateToken(42, "alice@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("expected email to roundtrip, got %q", claims.Email)
	}
	if claims.Issuer != "micro-marketplace" {
		t.Errorf("unexpected issuer %q", claims.Issuer)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	for _, token := range []string{
		"",
		"not.a.jwt",
		"eyJhbGciOiJIUzI1NiJ9.e30.invalidsignature",
	} {
		if _, err := ValidateToken(token); err == nil {
			t.Errorf("expected %q to be rejected", token)
		}
	}
}

func TestTokenTamperingDetected(t *testing.T) {
	token, err := GenerateToken(1, "a@b.c")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := ValidateToken(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}
