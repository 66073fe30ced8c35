package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"webloom/internal/config"
	"webloom/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// memUserStore implements domain.UserStore in memory.
type memUserStore struct {
	users  []domain.User
	nextID int64
}

func (m *memUserStore) CreateUser(ctx context.Context, email, passwordHash string) (int64, error) {
	m.nextID++
	m.users = append(m.users, domain.User{ID: m.nextID, Email: email, PasswordHash: passwordHash, CreatedAt: time.Now()})
	return m.nextID, nil
}

func (m *memUserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func newTestEngine(ttlDays int) (*Engine, *memUserStore) {
	store := &memUserStore{}
	e := NewEngine(config.AuthConfig{JWTSecret: "test-secret", TokenTTLDays: ttlDays}, store, testLogger())
	return e, store
}

func TestSignupAndLogin(t *testing.T) {
	e, store := newTestEngine(7)
	ctx := context.Background()

	identity, token, err := e.Signup(ctx, "Alice@Example.COM", "hunter22")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if identity.Email != "alice@example.com" {
		t.Errorf("email not normalized: %q", identity.Email)
	}
	if token == "" {
		t.Fatal("signup returned no token")
	}
	if store.users[0].PasswordHash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}

	loginIdentity, loginToken, err := e.Login(ctx, "  alice@example.com ", "hunter22")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loginIdentity.ID != identity.ID {
		t.Errorf("login resolved a different account: %d vs %d", loginIdentity.ID, identity.ID)
	}
	if loginToken == "" {
		t.Error("login returned no token")
	}
}

func TestSignupValidation(t *testing.T) {
	e, _ := newTestEngine(7)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"empty email", "", "secret1", ErrInvalidEmail},
		{"no at sign", "alice.example.com", "secret1", ErrInvalidEmail},
		{"no domain dot", "alice@example", "secret1", ErrInvalidEmail},
		{"short password", "alice@example.com", "12345", ErrWeakPassword},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := e.Signup(ctx, tc.email, tc.password)
			if !errors.Is(err, tc.want) {
				t.Errorf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	e, _ := newTestEngine(7)
	ctx := context.Background()

	if _, _, err := e.Signup(ctx, "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	_, _, err := e.Signup(ctx, "ALICE@example.com", "different1")
	if !errors.Is(err, ErrAccountExists) {
		t.Errorf("expected ErrAccountExists, got %v", err)
	}
}

func TestLoginRejections(t *testing.T) {
	e, _ := newTestEngine(7)
	ctx := context.Background()

	if _, _, err := e.Signup(ctx, "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if _, _, err := e.Login(ctx, "alice@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := e.Login(ctx, "nobody@example.com", "hunter22"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyToken(t *testing.T) {
	e, _ := newTestEngine(7)
	ctx := context.Background()

	identity, token, err := e.Signup(ctx, "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}

	verified, err := e.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if verified.ID != identity.ID || verified.Email != "alice@example.com" {
		t.Errorf("token identity mismatch: %+v", verified)
	}
}

func TestVerifyRejectsGarbageAndForeignTokens(t *testing.T) {
	e, _ := newTestEngine(7)
	ctx := context.Background()

	if _, err := e.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: expected ErrInvalidToken, got %v", err)
	}

	other := NewEngine(config.AuthConfig{JWTSecret: "other-secret", TokenTTLDays: 7}, &memUserStore{}, testLogger())
	_, foreignToken, err := other.Signup(ctx, "mallory@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := e.Verify(foreignToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("token signed with another secret: expected ErrInvalidToken, got %v", err)
	}
}
