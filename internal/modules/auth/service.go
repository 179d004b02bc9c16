package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"plaiful/internal/pkg/jwt"
	"plaiful/internal/pkg/validator"
)

// Service authenticates the single configured administrator.
type Service struct {
	email        string
	passwordHash []byte
	tokens       TokenIssuer
	tokenTTL     time.Duration
}

func NewService(email, passwordHash string, tokens TokenIssuer, tokenTTL time.Duration) *Service {
	return &Service{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
		tokenTTL:     tokenTTL,
	}
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if s.email == "" || len(s.passwordHash) == 0 {
		return nil, ErrLoginDisabled
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validator.Check(req); err != nil {
		return nil, err
	}

	// Always run bcrypt so an unknown email costs the same as a bad password.
	pwErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password))
	emailOK := subtle.ConstantTimeCompare([]byte(req.Email), []byte(s.email)) == 1
	if pwErr != nil || !emailOK {
		zap.L().Warn("admin login failed", zap.String("email", req.Email))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(s.email, jwt.RoleAdmin)
	if err != nil {
		return nil, err
	}

	zap.L().Info("admin logged in", zap.String("email", s.email))
	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokenTTL.Seconds()),
	}, nil
}
