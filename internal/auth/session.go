package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/concierge-portal/internal/observability"
)

// Session decides from local state alone whether a session is usable.
// Corrupt or expired tokens are purged from the store as a side effect.
type Session struct {
	tokens *TokenStore
	now    func() time.Time
	logger *zap.Logger
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock overrides the time source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) { s.logger = observability.OrNop(logger) }
}

// NewSession builds an evaluator over tokens.
func NewSession(tokens *TokenStore, opts ...SessionOption) *Session {
	s := &Session{tokens: tokens, now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokens exposes the underlying store.
func (s *Session) Tokens() *TokenStore {
	return s.tokens
}

// IsActive reports whether a present, decodable, unexpired token is stored.
func (s *Session) IsActive(ctx context.Context) bool {
	_, ok := s.Claims(ctx)
	return ok
}

// Claims returns the decoded claims of an active session.
func (s *Session) Claims(ctx context.Context) (*Claims, bool) {
	token, ok := s.tokens.Get(ctx)
	if !ok {
		return nil, false
	}

	claims, err := DecodeClaims(token)
	if err != nil {
		s.logger.Debug("purging undecodable token", zap.Error(err))
		s.tokens.Clear(ctx)
		return nil, false
	}

	if claims.ExpiresBefore(s.now()) {
		s.logger.Debug("purging expired token", zap.String("subject", claims.SubjectID()))
		s.tokens.Clear(ctx)
		return nil, false
	}
	return claims, true
}
