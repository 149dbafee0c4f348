package service

import (
	"context"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/order"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	ID   uuid.UUID
	Role enum.UserRole
}

func (a Actor) IsStaff() bool { return a.Role.IsStaff() }
func (a Actor) IsAdmin() bool { return a.Role == enum.RoleAdmin }

// eventBuffer holds transition events until the bill has been stored, so
// observers never see a transition that was rolled back.
type eventBuffer struct {
	events []order.Event
}

func (b *eventBuffer) Notify(_ context.Context, event order.Event) error {
	b.events = append(b.events, event)
	return nil
}

// flush delivers the buffered events. Observer failures are logged, never returned:
// the transition is already committed.
func (b *eventBuffer) flush(ctx context.Context, manager *order.Manager) {
	if manager == nil {
		b.events = nil
		return
	}
	for _, event := range b.events {
		if err := manager.Notify(ctx, event); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"bill_number": event.BillNumber,
				"status":      event.Status.String(),
			}).Warn("order observers failed")
		}
	}
	b.events = nil
}

func stockChanges(items []entity.BillItem) map[uuid.UUID]int {
	changes := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		changes[item.BookID] += item.Quantity
	}
	return changes
}
