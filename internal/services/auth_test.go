package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	// Low bcrypt cost to keep the test fast
	return NewAuthService("test-secret", 4, logger)
}

func TestHashAndVerifyPassword(t *testing.T) {
	svc := newTestAuthService(t)

	hash, err := svc.HashPassword("SecurePass123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if hash == "SecurePass123" {
		t.Fatal("Password stored without hashing")
	}

	if err := svc.VerifyPassword("SecurePass123", hash); err != nil {
		t.Errorf("Correct password rejected: %v", err)
	}

	if err := svc.VerifyPassword("WrongPass123", hash); err == nil {
		t.Error("Wrong password accepted")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestAuthService(t)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, "test@example.com", "Test User")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("Expected user ID %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "test@example.com" {
		t.Errorf("Expected email claim, got %q", claims.Email)
	}
	if claims.Name != "Test User" {
		t.Errorf("Expected name claim, got %q", claims.Name)
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc := newTestAuthService(t)

	token, err := svc.GenerateToken(uuid.New(), "test@example.com", "")
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	other := NewAuthService("different-secret", 4, logger)

	if _, err := other.ValidateToken(token); err == nil {
		t.Error("Token signed with another secret was accepted")
	}

	if _, err := svc.ValidateToken(token + "x"); err == nil {
		t.Error("Tampered token was accepted")
	}
}

func TestGenerateResetToken(t *testing.T) {
	svc := newTestAuthService(t)

	token, expiry, err := svc.GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken failed: %v", err)
	}

	// 32 random bytes, hex encoded
	if len(token) != 64 {
		t.Errorf("Expected 64-char token, got %d", len(token))
	}

	until := time.Until(expiry)
	if until <= 0 || until > ResetTokenTTL {
		t.Errorf("Expected expiry within %v, got %v", ResetTokenTTL, until)
	}

	token2, _, err := svc.GenerateResetToken()
	if err != nil {
		t.Fatalf("GenerateResetToken failed: %v", err)
	}
	if token == token2 {
		t.Error("Reset tokens should be unique")
	}
}
