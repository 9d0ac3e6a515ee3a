package service

import (
	"context"
	"errors"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/cache"
	"cinematch/backend/internal/logging"
	"cinematch/backend/pkg/jwt"

	"golang.org/x/crypto/bcrypt"
)

// AuthService issues, verifies and revokes access tokens.
type AuthService struct {
	users  *UserService
	issuer *jwt.Issuer
	cache  *cache.Cache
}

// NewAuthService creates an AuthService. c may be nil, which disables logout revocation.
func NewAuthService(users *UserService, issuer *jwt.Issuer, c *cache.Cache) *AuthService {
	return &AuthService{users: users, issuer: issuer, cache: c}
}

// Login checks the password of username and returns a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperr.InvalidCredentials("invalid credentials")
	}

	token, _, err := s.issuer.GenerateToken(user.ID, user.Username, user.RoleNames())
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, err, "failed to generate token")
	}

	logging.Info().Uint("user_id", user.ID).Msg("user logged in")
	return token, nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.issuer.ParseToken(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "invalid token")
	}

	revoked, err := s.cache.IsRevoked(ctx, claims.ID)
	if err != nil {
		// Fail open when Redis is unreachable.
		logging.Warn().Err(err).Msg("token deny-list lookup failed")
	}
	if revoked {
		return nil, apperr.Unauthorized("token has been revoked")
	}
	return claims, nil
}

// Logout deny-lists the token until it expires.
func (s *AuthService) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil {
		return apperr.Unauthorized("not authenticated")
	}
	if !s.cache.Enabled() {
		logging.Debug().Msg("token revocation disabled, logout is client-side only")
		return nil
	}
	if claims.ExpiresAt == nil {
		return apperr.Wrap(apperr.KindInternal, errors.New("token without expiry"), "failed to revoke token")
	}
	if err := s.cache.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Wrap(apperr.KindInternal, err, "failed to revoke token")
	}
	return nil
}
