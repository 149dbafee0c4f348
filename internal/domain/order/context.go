package order

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
)

// Result describes the outcome of one action
type Result struct {
	Action  Action    `json:"action"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Applied bool      `json:"applied"`
	NoOp    bool      `json:"no_op"`
	At      time.Time `json:"at"`
	// NotifyErr carries observer failures. The transition itself still happened.
	NotifyErr error `json:"-"`
}

// Notifier receives applied transitions
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Context owns a bill while it moves through one lifecycle
type Context[S State] struct {
	bill           *entity.Bill
	state          S
	table          table[S]
	lastTransition time.Time
	notifier       Notifier
	now            func() time.Time
}

// Option configures a Context
type Option func(*options)

type options struct {
	notifier Notifier
	now      func() time.Time
}

// WithNotifier publishes every applied transition to n
func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func newContext[S State](bill *entity.Bill, state S, t table[S], opts []Option) *Context[S] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	last := bill.StatusChangedAt
	if last.IsZero() {
		last = bill.BillDate
	}
	return &Context[S]{
		bill:           bill,
		state:          state,
		table:          t,
		lastTransition: last,
		notifier:       o.notifier,
		now:            o.now,
	}
}

// NewCollectionContext resumes the collection workflow of bill at its stored status
func NewCollectionContext(bill *entity.Bill, opts ...Option) (*Context[CollectionState], error) {
	state, err := CollectionStateOf(bill.Status)
	if err != nil {
		return nil, apperror.NewIllegalTransitionError(bill.Status.String(), "resume collection request")
	}
	return newContext(bill, state, collectionTable, opts), nil
}

// NewSaleContext resumes the sale lifecycle of bill at its stored status
func NewSaleContext(bill *entity.Bill, opts ...Option) (*Context[SaleState], error) {
	state, err := SaleStateOf(bill.Status)
	if err != nil {
		return nil, apperror.NewIllegalTransitionError(bill.Status.String(), "resume sale")
	}
	return newContext(bill, state, saleTable, opts), nil
}

func (c *Context[S]) Bill() *entity.Bill { return c.bill }
func (c *Context[S]) State() S           { return c.state }

// LastTransition is when the state last changed
func (c *Context[S]) LastTransition() time.Time { return c.lastTransition }

func (c *Context[S]) CanProcess() bool  { return c.table.applies(c.state, ActionProcess) }
func (c *Context[S]) CanCancel() bool   { return c.table.applies(c.state, ActionCancel) }
func (c *Context[S]) CanComplete() bool { return c.table.applies(c.state, ActionComplete) }

func (c *Context[S]) Process(ctx context.Context) (Result, error) {
	return c.Apply(ctx, ActionProcess)
}

func (c *Context[S]) Cancel(ctx context.Context) (Result, error) {
	return c.Apply(ctx, ActionCancel)
}

func (c *Context[S]) Complete(ctx context.Context) (Result, error) {
	return c.Apply(ctx, ActionComplete)
}

// Apply performs action. An illegal action leaves the state untouched and
// returns an illegal transition error alongside the result.
func (c *Context[S]) Apply(ctx context.Context, action Action) (Result, error) {
	from := c.state
	result := Result{Action: action, From: from.String(), To: from.String()}

	next, ok := c.table.lookup(from, action)
	if !ok {
		return result, apperror.NewIllegalTransitionError(from.String(), string(action))
	}
	if next.noop {
		result.NoOp = true
		return result, nil
	}

	now := c.now()
	c.state = next.to
	c.lastTransition = now
	c.bill.Status = next.to.Status()
	c.bill.StatusChangedAt = now

	result.To = next.to.String()
	result.Applied = true
	result.At = now

	if c.notifier != nil {
		result.NotifyErr = c.notifier.Notify(ctx, Event{
			BillID:     c.bill.ID,
			BillNumber: c.bill.BillNumber,
			CustomerID: c.bill.CustomerID,
			From:       from.Status(),
			Status:     next.to.Status(),
			Message:    fmt.Sprintf("Order %s moved from %s to %s", c.bill.BillNumber, from, next.to),
			At:         now,
		})
	}
	return result, nil
}
