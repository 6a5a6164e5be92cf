package utils_test

import (
	"errors"
	"testing"

	"ngabarin/gateway/internal/testutil"
	"ngabarin/gateway/internal/utils"
)

func TestValidateToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := testutil.Token("test-secret", "u1", "a@example.com", "#ALICE-123")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != "u1" || claims.UniqueID != "#ALICE-123" {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "two")
	token, _ := testutil.Token("one", "u1", "a@example.com", "#A-1")

	if _, err := utils.ValidateToken(token); err == nil {
		t.Error("expected validation failure with a different secret")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, _ := testutil.ExpiredToken("test-secret", "u1")

	if _, err := utils.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateToken_NoSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := utils.ValidateToken("x.y.z"); !errors.Is(err, utils.ErrNoSecret) {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
}
