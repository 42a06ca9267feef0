// Package auth verifies login credentials. Token issuance is out of scope;
// the caller gets the authenticated user back.
package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"time"

	"service-fleet/internal/apperr"
	"service-fleet/internal/domain"
	"service-fleet/internal/logx"
)

// Service - credential verification service.
type Service struct {
	users            userRepository
	operationTimeout time.Duration
	logger           logx.Logger
}

// NewService creates an auth service.
func NewService(users userRepository, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{users: users, operationTimeout: timeout, logger: logger}
}

// Login verifies username/password and returns the user. Unknown user and
// wrong password produce the same error, and the hash compare runs in both
// cases, so the responses do not reveal which usernames exist.
func (s *Service) Login(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, apperr.WithMessage(apperr.Invalid, "username and password are required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.operationTimeout)
	defer cancel()

	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return domain.User{}, err
	}

	stored := ""
	if u != nil {
		stored = u.PasswordHash
	}
	if !verify(password, stored) || u == nil {
		s.logger.Warn("login rejected", logx.String("username", username))
		return domain.User{}, apperr.WithMessage(apperr.Invalid, "invalid credentials")
	}

	s.logger.Info("login accepted",
		logx.Int64("user_id", u.ID),
		logx.String("username", u.Username),
	)
	return *u, nil
}

// HashPassword returns the stored form of a password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func verify(password, storedHash string) bool {
	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}
