// Package order holds the bill lifecycles: the collection request workflow
// and the walk-in sale, each a table driven state machine.
package order

import (
	"fmt"

	"github.com/sangkips/bookshop-pos/internal/domain/enum"
)

// Action is a request to move a bill through its lifecycle
type Action string

const (
	ActionProcess  Action = "process"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// State is implemented by CollectionState and SaleState
type State interface {
	comparable
	fmt.Stringer
	Status() enum.BillStatus
}

type cell[S State] struct {
	to   S
	noop bool
}

// table maps (state, action) to the next state. Missing cells are illegal.
type table[S State] map[S]map[Action]cell[S]

func (t table[S]) lookup(from S, action Action) (cell[S], bool) {
	c, ok := t[from][action]
	return c, ok
}

func (t table[S]) applies(from S, action Action) bool {
	c, ok := t.lookup(from, action)
	return ok && !c.noop
}

// CollectionState is a step of the collection request workflow
type CollectionState int

const (
	CollectionRequest CollectionState = iota
	AdminReview
	Approved
	Billing
	CollectionCompleted
	Rejected
	CollectionCancelled
)

var collectionStatuses = map[CollectionState]enum.BillStatus{
	CollectionRequest:   enum.BillStatusCollectionRequest,
	AdminReview:         enum.BillStatusAdminReview,
	Approved:            enum.BillStatusApproved,
	Billing:             enum.BillStatusBilling,
	CollectionCompleted: enum.BillStatusCompleted,
	Rejected:            enum.BillStatusRejected,
	CollectionCancelled: enum.BillStatusCancelled,
}

var collectionTable = table[CollectionState]{
	CollectionRequest: {
		ActionProcess: {to: AdminReview},
		ActionCancel:  {to: CollectionCancelled},
	},
	AdminReview: {
		ActionProcess: {to: Approved},
		ActionCancel:  {to: Rejected},
	},
	Approved: {
		ActionProcess: {to: Billing},
	},
	Billing: {
		ActionProcess:  {to: CollectionCompleted},
		ActionComplete: {to: CollectionCompleted},
	},
	CollectionCompleted: {
		ActionComplete: {to: CollectionCompleted, noop: true},
	},
	Rejected: {
		ActionCancel: {to: Rejected, noop: true},
	},
	CollectionCancelled: {
		ActionCancel: {to: CollectionCancelled, noop: true},
	},
}

func (s CollectionState) String() string {
	return s.Status().String()
}

// Status is the persisted bill status of s
func (s CollectionState) Status() enum.BillStatus {
	return collectionStatuses[s]
}

func (s CollectionState) CanProcess() bool  { return collectionTable.applies(s, ActionProcess) }
func (s CollectionState) CanCancel() bool   { return collectionTable.applies(s, ActionCancel) }
func (s CollectionState) CanComplete() bool { return collectionTable.applies(s, ActionComplete) }

// IsTerminal reports whether no action moves the request any further
func (s CollectionState) IsTerminal() bool {
	return !s.CanProcess() && !s.CanCancel() && !s.CanComplete()
}

// CollectionStateOf maps a stored status back to its workflow step
func CollectionStateOf(status enum.BillStatus) (CollectionState, error) {
	for state, st := range collectionStatuses {
		if st == status {
			return state, nil
		}
	}
	return 0, fmt.Errorf("bill status %s is not part of the collection workflow", status)
}

// SaleState is a step of a walk-in sale
type SaleState int

const (
	Pending SaleState = iota
	Processing
	SaleCompleted
	SaleCancelled
)

var saleStatuses = map[SaleState]enum.BillStatus{
	Pending:       enum.BillStatusPending,
	Processing:    enum.BillStatusProcessing,
	SaleCompleted: enum.BillStatusPaid,
	SaleCancelled: enum.BillStatusCancelled,
}

var saleTable = table[SaleState]{
	Pending: {
		ActionProcess: {to: Processing},
		ActionCancel:  {to: SaleCancelled},
	},
	Processing: {
		ActionCancel:   {to: SaleCancelled},
		ActionComplete: {to: SaleCompleted},
	},
	SaleCompleted: {
		ActionComplete: {to: SaleCompleted, noop: true},
	},
	SaleCancelled: {
		ActionCancel: {to: SaleCancelled, noop: true},
	},
}

func (s SaleState) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Processing:
		return "PROCESSING"
	case SaleCompleted:
		return "COMPLETED"
	case SaleCancelled:
		return "CANCELLED"
	}
	return "UNKNOWN"
}

// Status is the persisted bill status of s. A completed sale is stored as PAID.
func (s SaleState) Status() enum.BillStatus {
	return saleStatuses[s]
}

func (s SaleState) CanProcess() bool  { return saleTable.applies(s, ActionProcess) }
func (s SaleState) CanCancel() bool   { return saleTable.applies(s, ActionCancel) }
func (s SaleState) CanComplete() bool { return saleTable.applies(s, ActionComplete) }

// IsTerminal reports whether no action moves the sale any further
func (s SaleState) IsTerminal() bool {
	return !s.CanProcess() && !s.CanCancel() && !s.CanComplete()
}

// SaleStateOf maps a stored status back to its sale step
func SaleStateOf(status enum.BillStatus) (SaleState, error) {
	for state, st := range saleStatuses {
		if st == status {
			return state, nil
		}
	}
	return 0, fmt.Errorf("bill status %s is not part of the sale lifecycle", status)
}
