package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/trustpass/trustpass/internal/model"
	"github.com/trustpass/trustpass/internal/store"
)

func newTestAuth(t *testing.T) (*AuthService, *store.Store) {
	t.Helper()
	st, err := store.Open(store.Options{})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewAuthService(st, "test-secret-key-for-jwt"), st
}

func seedAdmin(t *testing.T, st *store.Store, email, password string, active bool) *model.Admin {
	t.Helper()
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	a := &model.Admin{Email: email, PasswordHash: hash, Name: "Test Admin", IsActive: active}
	if err := st.CreateAdmin(context.Background(), a); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return a
}

func TestLogin(t *testing.T) {
	auth, st := newTestAuth(t)
	ctx := context.Background()
	seedAdmin(t, st, "admin@example.com", "supersecret", true)

	admin, err := auth.Login(ctx, "admin@example.com", "supersecret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if admin.Email != "admin@example.com" {
		t.Errorf("got email %q, want %q", admin.Email, "admin@example.com")
	}

	if _, err := auth.Login(ctx, "admin@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := auth.Login(ctx, "nobody@example.com", "supersecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	auth, st := newTestAuth(t)
	seedAdmin(t, st, "off@example.com", "supersecret", false)

	if _, err := auth.Login(context.Background(), "off@example.com", "supersecret"); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("got %v, want ErrAccountDisabled", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	auth, _ := newTestAuth(t)
	ctx := context.Background()

	token, err := auth.IssueJWT(ctx, 42, "admin@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	principal, err := auth.ValidateJWT(ctx, token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if principal.AdminID != 42 {
		t.Errorf("AdminID: got %d, want 42", principal.AdminID)
	}
	if principal.Email != "admin@example.com" {
		t.Errorf("Email: got %q, want %q", principal.Email, "admin@example.com")
	}
}

func TestJWTExpired(t *testing.T) {
	auth, _ := newTestAuth(t)
	token, err := auth.IssueJWT(context.Background(), 1, "x@x.com", -time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}
	if _, err := auth.ValidateJWT(context.Background(), token); err == nil {
		t.Fatal("expected error for expired token")
	}
}

func TestJWTInvalidToken(t *testing.T) {
	auth, _ := newTestAuth(t)
	if _, err := auth.ValidateJWT(context.Background(), "garbage.token.here"); err == nil {
		t.Fatal("expected error for invalid token")
	}
}
