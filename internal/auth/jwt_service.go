package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "orderhub/internal/errors"
)

// RefreshTokenExpiry is the fixed lifetime of refresh tokens.
const RefreshTokenExpiry = 7 * 24 * time.Hour

// TokenConfig is the read-only signing configuration, built once at startup.
type TokenConfig struct {
	Secret              string
	Algorithm           string
	AccessTokenLifetime time.Duration
}

// JWTService handles JWT token generation and validation.
type JWTService struct {
	secret         []byte
	method         jwt.SigningMethod
	accessLifetime time.Duration
	now            func() time.Time
}

// Option customises a JWTService.
type Option func(*JWTService)

// WithClock replaces the time source used for issuing and validating.
func WithClock(now func() time.Time) Option {
	return func(s *JWTService) { s.now = now }
}

// NewJWTService creates a JWT service. Only HMAC algorithms are accepted.
func NewJWTService(cfg TokenConfig, opts ...Option) (*JWTService, error) {
	if cfg.Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	method, ok := jwt.GetSigningMethod(cfg.Algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if cfg.AccessTokenLifetime <= 0 {
		return nil, errors.New("access token lifetime must be positive")
	}

	s := &JWTService{
		secret:         []byte(cfg.Secret),
		method:         method,
		accessLifetime: cfg.AccessTokenLifetime,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessTokenLifetime returns the configured access token lifetime.
func (s *JWTService) AccessTokenLifetime() time.Duration {
	return s.accessLifetime
}

// Issue signs a token for userID that expires after lifetime.
func (s *JWTService) Issue(userID uint, lifetime time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// IssueAccess issues a short-lived access token.
func (s *JWTService) IssueAccess(userID uint) (string, error) {
	return s.Issue(userID, s.accessLifetime)
}

// IssueRefresh issues a refresh token valid for RefreshTokenExpiry.
func (s *JWTService) IssueRefresh(userID uint) (string, error) {
	return s.Issue(userID, RefreshTokenExpiry)
}

// Validate checks signature, algorithm and expiry and returns the subject's user id.
func (s *JWTService) Validate(tokenString string) (uint, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims jwt.RegisteredClaims
	token, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return 0, apperrors.ErrInvalidToken.WithCause(err)
	}
	if !token.Valid {
		return 0, apperrors.ErrInvalidToken
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 0)
	if err != nil || userID == 0 {
		return 0, apperrors.ErrInvalidToken.WithCause(fmt.Errorf("bad subject %q", claims.Subject))
	}
	return uint(userID), nil
}
