// Package auth implements account registration, credential verification,
// and bearer-token issuance for the HTTP API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"webloom/internal/config"
	"webloom/internal/domain"
)

const minPasswordLength = 6

var (
	ErrAccountExists      = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLength)
	ErrInvalidEmail       = errors.New("a valid email address is required")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Engine handles signup, login, and token verification. Passwords are
// stored as bcrypt hashes; sessions are stateless HS256 JWTs carrying the
// account id and email.
type Engine struct {
	users    domain.UserStore
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

func NewEngine(cfg config.AuthConfig, users domain.UserStore, logger *slog.Logger) *Engine {
	ttlDays := cfg.TokenTTLDays
	if ttlDays <= 0 {
		ttlDays = 7
	}
	return &Engine{
		users:    users,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: time.Duration(ttlDays) * 24 * time.Hour,
		logger:   logger,
	}
}

// Signup creates an account and returns it with a fresh token.
func (e *Engine) Signup(ctx context.Context, email, password string) (*domain.Identity, string, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, "", ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}

	if existing, err := e.users.GetUserByEmail(ctx, email); err != nil {
		return nil, "", fmt.Errorf("look up account: %w", err)
	} else if existing != nil {
		return nil, "", ErrAccountExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	id, err := e.users.CreateUser(ctx, email, string(hash))
	if err != nil {
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	identity := &domain.Identity{ID: id, Email: email}
	token, err := e.issueToken(identity)
	if err != nil {
		return nil, "", err
	}

	e.logger.Info("account created", "email", email, "user_id", id)
	return identity, token, nil
}

// Login verifies credentials and returns the account with a fresh token.
// Unknown email and wrong password are indistinguishable to the caller.
func (e *Engine) Login(ctx context.Context, email, password string) (*domain.Identity, string, error) {
	email = normalizeEmail(email)

	user, err := e.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("look up account: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	identity := &domain.Identity{ID: user.ID, Email: user.Email}
	token, err := e.issueToken(identity)
	if err != nil {
		return nil, "", err
	}

	e.logger.Info("login", "email", email, "user_id", user.ID)
	return identity, token, nil
}

// Verify parses and validates a bearer token, returning the identity it
// carries.
func (e *Engine) Verify(tokenString string) (*domain.Identity, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return e.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	return &domain.Identity{ID: id, Email: email}, nil
}

func (e *Engine) issueToken(identity *domain.Identity) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(identity.ID, 10),
		"email": identity.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(e.tokenTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domainPart := email[at+1:]
	return strings.Contains(domainPart, ".") && !strings.ContainsAny(email, " \t\n")
}
