package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"quizgen-service/internal/domain"
)

// UserStore abstracts user persistence (in-memory, Postgres).
type UserStore interface {
	// Create stores a new user; domain.ErrUserExists on a taken username.
	Create(ctx context.Context, user domain.User) error
	// GetByUsername returns the user or domain.ErrUserNotFound.
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}

// AuthService implements the account flow: register, login-token issuance,
// and the protected profile read. It is orthogonal to the quiz engine, which
// only ever sees the outcome of a bearer-token check.
type AuthService struct {
	users    UserStore
	secret   []byte
	tokenTTL time.Duration
	log      *logrus.Logger
}

func NewAuthService(users UserStore, secret string, tokenTTL time.Duration, log *logrus.Logger) *AuthService {
	if log == nil {
		log = logrus.New()
	}
	return &AuthService{users: users, secret: []byte(secret), tokenTTL: tokenTTL, log: log}
}

// Register creates an account with a bcrypt-hashed password.
func (s *AuthService) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return err
	}
	s.log.WithField("username", username).Info("user registered")
	return nil
}

// Login verifies the password and returns a signed bearer token. An unknown
// username and a wrong password fail differently, matching the register/login
// form behavior the frontend expects.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	claims := jwt.RegisteredClaims{
		Subject:   user.Username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	s.log.WithField("username", username).Info("user logged in")
	return token, nil
}

// UserInfo resolves a bearer token to the account it names. Every failure
// mode (bad signature, expiry, vanished user) collapses into ErrInvalidToken.
func (s *AuthService) UserInfo(ctx context.Context, token string) (domain.User, error) {
	username, err := s.VerifyToken(token)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return domain.User{}, domain.ErrInvalidToken
	}
	return user, nil
}

// VerifyToken validates a bearer token and returns the username it carries.
func (s *AuthService) VerifyToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
