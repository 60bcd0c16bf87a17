package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/psemenov/filebox/internal/common"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("u1", secret, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID, err := GetUserIDFromToken(token, secret)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("want u1, got %s", userID)
	}
}

func TestGetUserIDFromToken_WrongSecret(t *testing.T) {
	token, err := GenerateToken("u1", []byte("right"), time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = GetUserIDFromToken(token, []byte("wrong"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}

func TestGetUserIDFromToken_Expired(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("u1", secret, -time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = GetUserIDFromToken(token, secret)
	if !errors.Is(err, common.ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
}

func TestGetUserIDFromToken_Garbage(t *testing.T) {
	_, err := GetUserIDFromToken("not-a-token", []byte("secret"))
	if !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("want ErrInvalidToken, got %v", err)
	}
}
