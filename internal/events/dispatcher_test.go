package events

import (
	"context"
	"errors"
	"testing"

	"github.com/spec-kit/concierge-portal/internal/domain"
)

func TestPublishRunsAllHandlersInOrder(t *testing.T) {
	d := NewInMemoryDispatcher()
	var order []int
	d.Subscribe(EventSessionStarted, func(context.Context, Event) error {
		order = append(order, 1)
		return errors.New("first failed")
	})
	d.Subscribe(EventSessionStarted, func(context.Context, Event) error {
		order = append(order, 2)
		return nil
	})
	d.Subscribe(EventSessionEnded, func(context.Context, Event) error {
		order = append(order, 99)
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventSessionStarted, "v1", "u1", domain.RoleClient))
	if err == nil {
		t.Fatal("expected handler error to be reported")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected handler order %v", order)
	}
}

func TestNewEventStampsIdentity(t *testing.T) {
	a := NewEvent(EventRoleSwitched, "v1", "u1", domain.RoleAdmin)
	b := NewEvent(EventRoleSwitched, "v1", "u1", domain.RoleAdmin)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.Timestamp.IsZero() {
		t.Fatal("expected timestamp")
	}
}
