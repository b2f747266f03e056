package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/concierge-portal/internal/auth"
	"github.com/spec-kit/concierge-portal/internal/client"
	"github.com/spec-kit/concierge-portal/internal/events"
	"github.com/spec-kit/concierge-portal/internal/observability"
	"github.com/spec-kit/concierge-portal/internal/persistence"
	"github.com/spec-kit/concierge-portal/internal/querycache"
)

// Portal composes the shared storage, fetch client, query cache and event
// dispatcher, and hands out a gateway per browser profile.
type Portal struct {
	storage persistence.Backend
	client  *client.Client
	cache   *querycache.Cache
	events  events.Dispatcher
	logger  *zap.Logger
	now     func() time.Time
}

// PortalDependencies encapsulates the shared components.
type PortalDependencies struct {
	Storage persistence.Backend
	Client  *client.Client
	Cache   *querycache.Cache
	Events  events.Dispatcher
	Logger  *zap.Logger
	// Now overrides the session clock.
	Now func() time.Time
}

// NewPortal builds the composition root.
func NewPortal(deps PortalDependencies) *Portal {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Portal{
		storage: deps.Storage,
		client:  deps.Client,
		cache:   deps.Cache,
		events:  deps.Events,
		logger:  observability.OrNop(deps.Logger),
		now:     now,
	}
}

// Gateway returns the gateway for the browser profile identified by visitorID.
// Gateways are cheap; all state lives in storage and the cache.
func (p *Portal) Gateway(visitorID string) *AuthGateway {
	logger := p.logger.With(zap.String("visitor", visitorID))
	tokens := auth.NewTokenStore(p.storage, visitorID, logger)
	session := auth.NewSession(tokens, auth.WithClock(p.now), auth.WithLogger(logger))
	return NewAuthGateway(GatewayDependencies{
		Client:  p.client,
		Session: session,
		Cache:   p.cache,
		Events:  p.events,
		Scope:   visitorID,
		Logger:  logger,
	})
}
