package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
	"golang.org/x/crypto/bcrypt"
)

var _ port.AdminAuthenticator = (*AuthService)(nil)

const adminRole = "admin"

type adminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// An AuthService issues and checks back-office tokens.
type AuthService struct {
	passwordHash []byte
	secret       []byte
	ttl          time.Duration
	now          func() time.Time
}

func NewAuthService(
	passwordHash string, secret string, ttl time.Duration,
) AuthService {
	return AuthService{
		passwordHash: []byte(passwordHash),
		secret:       []byte(secret),
		ttl:          ttl,
		now:          time.Now,
	}
}

func (s AuthService) Login(ctx context.Context, password string) (string, error) {
	const op = "AuthService.Login"

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if password == "" || len(s.passwordHash) == 0 {
		return "", fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}

	now := s.now()
	claims := adminClaims{
		Role: adminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   adminRole,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

func (s AuthService) Verify(token string) error {
	const op = "AuthService.Verify"

	var claims adminClaims
	_, err := jwt.ParseWithClaims(
		token, &claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrUnauthorized, err))
	}

	if claims.Role != adminRole {
		return fmt.Errorf("%s: %w", op, domain.ErrUnauthorized)
	}
	return nil
}
