package auth

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/concierge-portal/internal/observability"
	"github.com/spec-kit/concierge-portal/internal/persistence"
)

// TokenKey is the storage key holding the bearer token.
const TokenKey = "token"

// TokenStore persists the bearer token for one browser profile.
type TokenStore struct {
	backend persistence.Backend
	key     string
	logger  *zap.Logger
}

// NewTokenStore scopes the token key to namespace. An empty namespace uses the bare key.
func NewTokenStore(backend persistence.Backend, namespace string, logger *zap.Logger) *TokenStore {
	return &TokenStore{
		backend: backend,
		key:     persistence.ScopedKey(namespace, TokenKey),
		logger:  observability.OrNop(logger),
	}
}

// Get returns the stored token. Backend failures are logged and reported as absent.
func (s *TokenStore) Get(ctx context.Context) (string, bool) {
	token, ok, err := s.backend.GetItem(ctx, s.key)
	if err != nil {
		s.logger.Warn("token store read failed", zap.String("key", s.key), zap.Error(err))
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Set overwrites the stored token without validating it.
func (s *TokenStore) Set(ctx context.Context, token string) error {
	return s.backend.SetItem(ctx, s.key, token)
}

// Clear removes the token. It never fails from the caller's point of view.
func (s *TokenStore) Clear(ctx context.Context) {
	if err := s.backend.RemoveItem(ctx, s.key); err != nil {
		s.logger.Warn("token store clear failed", zap.String("key", s.key), zap.Error(err))
	}
}
