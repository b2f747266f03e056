package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/concierge-portal/internal/events"
	"github.com/spec-kit/concierge-portal/internal/observability"
)

// StartSessionAuditWorker logs every session transition published on dispatcher.
func StartSessionAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}
	logger = observability.OrNop(logger)
	handler := func(_ context.Context, event events.Event) error {
		logger.Info("session event",
			zap.String("event_id", event.ID),
			zap.String("type", string(event.Type)),
			zap.String("scope", event.Scope),
			zap.String("user_id", event.UserID),
			zap.String("role", string(event.Role)),
		)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventSessionStarted,
		events.EventSessionEnded,
		events.EventRoleSwitched,
	} {
		dispatcher.Subscribe(eventType, handler)
	}
}
