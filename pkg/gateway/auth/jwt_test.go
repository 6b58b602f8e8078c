package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/verident/registry/pkg/common/models"
)

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("unit-test-signing-secret", "registry", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager error: %v", err)
	}
	return m
}

func TestIssueAndValidateToken(t *testing.T) {
	m := newTestManager(t)
	user := models.User{ID: uuid.New(), Username: "longusername"}

	token, err := m.IssueToken(user)
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken error: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("user id mismatch: got %s want %s", claims.UserID, user.ID)
	}
	if claims.Username != "longusername" {
		t.Fatalf("username mismatch: got %q", claims.Username)
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Fatal("expected a future expiry claim")
	}
}

func TestValidateTokenExpired(t *testing.T) {
	m := newTestManager(t)
	m.nowFunc = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := m.IssueToken(models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	m.nowFunc = time.Now
	if _, err := m.ValidateToken(token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := newTestManager(t)
	token, err := m.IssueToken(models.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("IssueToken error: %v", err)
	}

	other, err := NewJWTManager("another-signing-secret", "registry", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager error: %v", err)
	}
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected error for token signed with a different secret")
	}
}

func TestValidateTokenMalformed(t *testing.T) {
	m := newTestManager(t)
	for _, token := range []string{"", "not.a.jwt", "garbage"} {
		if _, err := m.ValidateToken(token); err == nil {
			t.Fatalf("expected error for token %q", token)
		}
	}
}

func TestNewJWTManagerShortSecret(t *testing.T) {
	if _, err := NewJWTManager("short", "registry", time.Hour); err == nil {
		t.Fatal("expected error for short secret")
	}
}
