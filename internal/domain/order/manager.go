package order

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/bookshop-pos/internal/domain/enum"
)

// Event is an order status notification
type Event struct {
	BillID     uuid.UUID       `json:"bill_id"`
	BillNumber string          `json:"bill_number"`
	CustomerID uuid.UUID       `json:"customer_id"`
	From       enum.BillStatus `json:"from"`
	Status     enum.BillStatus `json:"status"`
	Message    string          `json:"message"`
	At         time.Time       `json:"at"`
}

// Observer reacts to order status changes
type Observer interface {
	ID() string
	Update(ctx context.Context, event Event) error
}

// ObserverFailure is one observer's error while handling an event
type ObserverFailure struct {
	ObserverID string
	Err        error
}

// NotifyError lists every observer that failed during one Notify call
type NotifyError struct {
	Failures []ObserverFailure
}

func (e *NotifyError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.ObserverID, f.Err)
	}
	return "observer notification failed: " + strings.Join(parts, "; ")
}

func (e *NotifyError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Manager delivers events to observers in registration order
type Manager struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewManager(observers ...Observer) *Manager {
	m := &Manager{}
	for _, o := range observers {
		m.Register(o)
	}
	return m
}

// Register adds o unless an observer with the same ID is already registered
func (m *Manager) Register(o Observer) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.observers {
		if existing.ID() == o.ID() {
			return false
		}
	}
	m.observers = append(m.observers, o)
	return true
}

// Unregister removes the observer with the given ID
func (m *Manager) Unregister(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.observers {
		if existing.ID() == id {
			m.observers = append(m.observers[:i:i], m.observers[i+1:]...)
			return true
		}
	}
	return false
}

// Observers returns the registered IDs in order
func (m *Manager) Observers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, len(m.observers))
	for i, o := range m.observers {
		ids[i] = o.ID()
	}
	return ids
}

// Notify calls every observer in order. A failing or panicking observer does
// not stop the rest; the failures come back as a *NotifyError.
func (m *Manager) Notify(ctx context.Context, event Event) error {
	m.mu.RLock()
	observers := append([]Observer(nil), m.observers...)
	m.mu.RUnlock()

	var failures []ObserverFailure
	for _, o := range observers {
		if err := safeUpdate(ctx, o, event); err != nil {
			failures = append(failures, ObserverFailure{ObserverID: o.ID(), Err: err})
		}
	}
	if len(failures) > 0 {
		return &NotifyError{Failures: failures}
	}
	return nil
}

func safeUpdate(ctx context.Context, o Observer, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return o.Update(ctx, event)
}
