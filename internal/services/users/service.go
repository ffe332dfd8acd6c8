// Package users implements account signup, credential verification and
// token refresh.
package users

import (
	"context"
	"strings"
	"time"

	"github.com/bookly-io/bookly/internal/auth"
	"github.com/bookly-io/bookly/internal/domain/user"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/storage"
)

// Service manages user accounts and session tokens.
type Service struct {
	store  storage.UserStore
	tokens *auth.TokenIssuer
	log    *logging.Logger
}

// New constructs a user service.
func New(store storage.UserStore, tokens *auth.TokenIssuer, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("users")
	}
	return &Service{store: store, tokens: tokens, log: log}
}

// Signup registers a new account. The password is hashed before it reaches
// the store; duplicate email or username is a conflict.
func (s *Service) Signup(ctx context.Context, u user.User, password string) (user.User, error) {
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	if u.Username == "" {
		return user.User{}, errors.Validation("username is required")
	}
	if u.Email == "" {
		return user.User{}, errors.Validation("email is required")
	}
	if password == "" {
		return user.User{}, errors.Validation("password is required")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return user.User{}, errors.Internal("Failed to hash password", err)
	}
	u.PasswordHash = hash
	u.IsActive = true

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}
	s.log.WithContext(ctx).WithField("uid", created.UID).Info("user registered")
	return created, nil
}

// Signin verifies the credentials and mints an access/refresh token pair.
// A missing account and a wrong password are indistinguishable to the caller.
func (s *Service) Signin(ctx context.Context, email, password string) (user.User, string, string, error) {
	invalid := errors.Unauthorized("Invalid email or password")

	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.IsCode(err, errors.CodeNotFound) {
			return user.User{}, "", "", invalid
		}
		return user.User{}, "", "", err
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		return user.User{}, "", "", invalid
	}

	access, err := s.tokens.IssueAccessToken(u.UID, u.Email)
	if err != nil {
		return user.User{}, "", "", errors.Internal("Failed to issue token", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(u.UID, u.Email)
	if err != nil {
		return user.User{}, "", "", errors.Internal("Failed to issue token", err)
	}

	s.log.WithContext(ctx).WithField("uid", u.UID).Info("user signed in")
	return u, access, refresh, nil
}

// Refresh mints a new access token from verified refresh-token claims.
// Expiry is re-checked here even though token decoding already enforces it.
func (s *Service) Refresh(ctx context.Context, claims *auth.Claims) (string, error) {
	if claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
		return "", errors.Unauthorized("Token has expired")
	}

	access, err := s.tokens.IssueAccessToken(claims.Subject, claims.Email)
	if err != nil {
		return "", errors.Internal("Failed to issue token", err)
	}
	return access, nil
}

// Get fetches a user by uid, typically the authenticated caller's own record.
func (s *Service) Get(ctx context.Context, uid string) (user.User, error) {
	return s.store.GetUser(ctx, uid)
}
