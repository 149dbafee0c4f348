package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/billing"
	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/order"
	"github.com/sangkips/bookshop-pos/internal/domain/payment"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/pagination"
)

// CollectionService runs the reserve-and-collect workflow: a customer asks
// for books, an administrator reviews the request, staff bill it and the
// customer collects.
type CollectionService struct {
	billRepo      repository.BillRepository
	bookRepo      repository.BookRepository
	userRepo      repository.UserRepository
	settings      *SettingsService
	numbers       billing.NumberGenerator
	observers     *order.Manager
	gateway       payment.Gateway
	defaultPolicy string
	now           func() time.Time
}

// NewCollectionService creates a new collection service
func NewCollectionService(
	billRepo repository.BillRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	settings *SettingsService,
	numbers billing.NumberGenerator,
	observers *order.Manager,
	defaultPolicy string,
) *CollectionService {
	return &CollectionService{
		billRepo:      billRepo,
		bookRepo:      bookRepo,
		userRepo:      userRepo,
		settings:      settings,
		numbers:       numbers,
		observers:     observers,
		defaultPolicy: defaultPolicy,
		now:           time.Now,
	}
}

// WithGateway enables THIRD_PARTY payments for billed requests
func (s *CollectionService) WithGateway(gateway payment.Gateway) *CollectionService {
	s.gateway = gateway
	return s
}

// SubmitInput represents a new collection request
type SubmitInput struct {
	CustomerID      uuid.UUID
	Items           []CartItem
	IsDelivery      bool
	DeliveryAddress string
	DiscountPolicy  string
	Notes           string
}

// Command is an operation that can be reverted after it ran
type Command interface {
	Execute(ctx context.Context) error
	Undo(ctx context.Context) error
}

// SubmitCommand stores a collection request. Undo cancels it.
type SubmitCommand struct {
	svc   *CollectionService
	actor Actor
	input SubmitInput
	bill  *entity.Bill
}

// NewSubmitCommand prepares a submission on behalf of actor
func (s *CollectionService) NewSubmitCommand(actor Actor, input SubmitInput) *SubmitCommand {
	return &SubmitCommand{svc: s, actor: actor, input: input}
}

// Bill is the stored request once Execute succeeded
func (c *SubmitCommand) Bill() *entity.Bill { return c.bill }

func (c *SubmitCommand) Execute(ctx context.Context) error {
	if c.bill != nil {
		return apperror.NewBadRequestError("Collection request already submitted")
	}
	bill, err := c.svc.create(ctx, c.actor, c.input)
	if err != nil {
		return err
	}
	c.bill = bill
	return nil
}

func (c *SubmitCommand) Undo(ctx context.Context) error {
	if c.bill == nil {
		return apperror.NewBadRequestError("Nothing to undo")
	}
	bill, err := c.svc.Cancel(ctx, c.bill.ID, c.actor)
	if err != nil {
		return err
	}
	c.bill = bill
	return nil
}

// Submit stores a new request in COLLECTION_REQUEST.
// Customers may only submit for themselves.
func (s *CollectionService) Submit(ctx context.Context, actor Actor, input SubmitInput) (*entity.Bill, error) {
	cmd := s.NewSubmitCommand(actor, input)
	if err := cmd.Execute(ctx); err != nil {
		return nil, err
	}
	return cmd.Bill(), nil
}

func (s *CollectionService) create(ctx context.Context, actor Actor, input SubmitInput) (*entity.Bill, error) {
	if actor.Role == enum.RoleCustomer {
		input.CustomerID = actor.ID
	}
	if len(input.Items) == 0 {
		return nil, apperror.NewFieldError("items", "at least one item is required")
	}
	if input.DiscountPolicy != "" {
		if _, err := resolvePolicy(input.DiscountPolicy, ""); err != nil {
			return nil, err
		}
	}

	customer, err := loadCustomer(ctx, s.userRepo, input.CustomerID)
	if err != nil {
		return nil, err
	}
	submitter := customer
	if actor.ID != customer.ID {
		if submitter, err = loadStaff(ctx, s.userRepo, actor.ID); err != nil {
			return nil, err
		}
	}
	books, err := loadBooks(ctx, s.bookRepo, input.Items)
	if err != nil {
		return nil, err
	}

	// Until billing the totals are an estimate: line totals only.
	builder := billing.NewDefault(s.numbers).
		WithBillDate(s.now()).
		WithCustomer(customer).
		WithCashier(submitter).
		WithStatus(enum.BillStatusCollectionRequest).
		WithPaymentMethod(payment.MethodCollection).
		WithDelivery(input.IsDelivery, input.DeliveryAddress).
		WithNotes(input.Notes).
		WithTotals(decimal.Zero, decimal.Zero, decimal.Zero)
	for _, item := range input.Items {
		builder.AddItem(books[item.BookID], item.Quantity, item.DiscountPercent)
	}
	bill, err := builder.Build()
	if err != nil {
		return nil, err
	}
	bill.DiscountPolicy = strings.ToLower(strings.TrimSpace(input.DiscountPolicy))

	if err := s.billRepo.Create(ctx, bill, repository.BillEffects{}); err != nil {
		return nil, billWriteError(err, itemTitles(bill.Items))
	}
	log.WithFields(log.Fields{"bill_number": bill.BillNumber, "customer_id": customer.ID}).Info("collection request submitted")

	message := "Collection request submitted"
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		message += ": " + notes
	}
	events := &eventBuffer{}
	_ = events.Notify(ctx, order.Event{
		BillID:     bill.ID,
		BillNumber: bill.BillNumber,
		CustomerID: bill.CustomerID,
		Status:     enum.BillStatusCollectionRequest,
		Message:    message,
		At:         s.now(),
	})
	events.flush(ctx, s.observers)
	return bill, nil
}

// ProcessInput carries what the BILLING and COMPLETED steps need
type ProcessInput struct {
	// PaymentMethod is recorded when the request enters BILLING. Defaults to CASH.
	PaymentMethod  string
	DiscountPolicy string
	// PaymentDetails are checked on entering BILLING and charged on completion.
	// They are never stored, so completion must supply them again.
	PaymentDetails payment.Details
}

// Process moves a request one step forward:
// COLLECTION_REQUEST → ADMIN_REVIEW → APPROVED → BILLING → COMPLETED.
// Entering BILLING prices the request and takes the books from stock.
func (s *CollectionService) Process(ctx context.Context, billID uuid.UUID, actor Actor, input ProcessInput) (*entity.Bill, error) {
	return s.apply(ctx, billID, actor, order.ActionProcess, input)
}

// Cancel withdraws a request before review, or rejects it during review
func (s *CollectionService) Cancel(ctx context.Context, billID uuid.UUID, actor Actor) (*entity.Bill, error) {
	return s.apply(ctx, billID, actor, order.ActionCancel, ProcessInput{})
}

// Complete charges a billed request and hands it over to the customer.
// A declined payment leaves the request in BILLING.
func (s *CollectionService) Complete(ctx context.Context, billID uuid.UUID, actor Actor, details payment.Details) (*entity.Bill, error) {
	return s.apply(ctx, billID, actor, order.ActionComplete, ProcessInput{PaymentDetails: details})
}

func (s *CollectionService) apply(ctx context.Context, billID uuid.UUID, actor Actor, action order.Action, input ProcessInput) (*entity.Bill, error) {
	bill, err := s.GetRequest(ctx, billID)
	if err != nil {
		return nil, err
	}

	events := &eventBuffer{}
	flow, err := order.NewCollectionContext(bill, order.WithNotifier(events), order.WithClock(s.now))
	if err != nil {
		return nil, err
	}
	if err := authorize(flow.State(), action, actor, bill); err != nil {
		return nil, err
	}

	from := bill.Status
	var effects repository.BillEffects
	if flow.State() == order.Approved && action == order.ActionProcess {
		if err := s.price(ctx, bill, actor, input); err != nil {
			return nil, err
		}
		effects.DecrementStock = stockChanges(bill.Items)
	}
	if flow.State() == order.Billing && action != order.ActionCancel {
		if err := s.charge(bill, input.PaymentDetails); err != nil {
			return nil, err
		}
	}

	result, err := flow.Apply(ctx, action)
	if err != nil {
		return nil, err
	}
	if result.NoOp {
		return bill, nil
	}
	if flow.State() == order.CollectionCompleted {
		effects.CustomerUnits = bill.UnitsConsumed
	}

	if err := s.billRepo.UpdateStatus(ctx, bill, from, effects); err != nil {
		return nil, billWriteError(err, itemTitles(bill.Items))
	}
	events.flush(ctx, s.observers)

	log.WithFields(log.Fields{
		"bill_number": bill.BillNumber,
		"from":        result.From,
		"to":          result.To,
		"by":          actor.ID,
	}).Info("collection request moved")
	return bill, nil
}

// price runs the pricing engine over the captured lines and makes actor the cashier
func (s *CollectionService) price(ctx context.Context, bill *entity.Bill, actor Actor, input ProcessInput) error {
	customer, err := loadCustomer(ctx, s.userRepo, bill.CustomerID)
	if err != nil {
		return err
	}
	cashier, err := loadStaff(ctx, s.userRepo, actor.ID)
	if err != nil {
		return err
	}
	snap, err := s.settings.Snapshot(ctx)
	if err != nil {
		return err
	}
	policyName := input.DiscountPolicy
	if policyName == "" {
		policyName = bill.DiscountPolicy
	}
	policy, err := resolvePolicy(policyName, s.defaultPolicy)
	if err != nil {
		return err
	}
	if strings.EqualFold(strings.TrimSpace(input.PaymentMethod), payment.MethodCollection) {
		return apperror.NewFieldError("payment_method", "choose how the customer pays")
	}
	method, err := payment.New(input.PaymentMethod, input.PaymentDetails, s.gateway)
	if err != nil {
		return err
	}

	builder := billing.NewBuilder().
		WithBillNumber(bill.BillNumber).
		WithBillDate(bill.BillDate).
		WithCustomer(customer).
		WithCashier(cashier).
		WithPaymentMethod(method.MethodName()).
		WithStatus(bill.Status).
		WithDelivery(bill.IsDelivery, bill.DeliveryAddress).
		WithPricing(snap, policy)
	if bill.Notes != nil {
		builder.WithNotes(*bill.Notes)
	}
	for _, item := range bill.Items {
		builder.AddLine(item)
	}
	priced, err := builder.Build()
	if err != nil {
		return err
	}

	bill.CashierID = priced.CashierID
	bill.Cashier = priced.Cashier
	bill.Customer = priced.Customer
	bill.Items = priced.Items
	bill.Subtotal = priced.Subtotal
	bill.Discount = priced.Discount
	bill.Tax = priced.Tax
	bill.DeliveryCharge = priced.DeliveryCharge
	bill.Total = priced.Total
	bill.UnitsConsumed = priced.UnitsConsumed
	bill.PaymentMethod = priced.PaymentMethod
	bill.DiscountPolicy = priced.DiscountPolicy
	return nil
}

// charge runs the payment recorded at billing against the bill total
func (s *CollectionService) charge(bill *entity.Bill, details payment.Details) error {
	method, err := payment.New(bill.PaymentMethod, details, s.gateway)
	if err != nil {
		return err
	}
	if !method.ProcessPayment(bill.Total) {
		log.WithFields(log.Fields{
			"bill_number": bill.BillNumber,
			"method":      method.Description(),
		}).Warn("payment declined")
		return apperror.ErrPaymentDeclined
	}
	return nil
}

// authorize applies the role rules: customers may only withdraw their own
// request before review, review decisions belong to administrators and the
// remaining steps to any staff member.
func authorize(state order.CollectionState, action order.Action, actor Actor, bill *entity.Bill) error {
	if actor.Role == enum.RoleCustomer {
		if bill.CustomerID != actor.ID {
			return apperror.NewNotFoundError("Collection request")
		}
		if action == order.ActionCancel && state == order.CollectionRequest {
			return nil
		}
		return apperror.ErrForbidden
	}
	if state == order.AdminReview && !actor.IsAdmin() {
		return apperror.NewAppError(403, "Only an administrator can decide a request under review")
	}
	if !actor.IsStaff() {
		return apperror.ErrForbidden
	}
	return nil
}

// GetRequest retrieves a collection request
func (s *CollectionService) GetRequest(ctx context.Context, id uuid.UUID) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistenceError(err)
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Collection request")
	}
	if _, err := order.CollectionStateOf(bill.Status); err != nil {
		return nil, apperror.NewNotFoundError("Collection request")
	}
	return bill, nil
}

// CollectionStatuses are the statuses a collection request can hold
func CollectionStatuses() []enum.BillStatus {
	return []enum.BillStatus{
		enum.BillStatusCollectionRequest,
		enum.BillStatusAdminReview,
		enum.BillStatusApproved,
		enum.BillStatusBilling,
		enum.BillStatusCompleted,
		enum.BillStatusRejected,
		enum.BillStatusCancelled,
	}
}

// ListRequests lists collection requests. Without statuses every collection status is included.
func (s *CollectionService) ListRequests(ctx context.Context, params *repository.BillFilterParams) (*pagination.PaginatedResult[entity.Bill], error) {
	if len(params.Statuses) == 0 {
		params.Statuses = CollectionStatuses()
	}
	for _, status := range params.Statuses {
		if _, err := order.CollectionStateOf(status); err != nil {
			return nil, apperror.NewFieldError("status", status.String()+" is not a collection status")
		}
	}
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	bills, total, err := s.billRepo.List(ctx, params)
	if err != nil {
		return nil, persistenceError(err)
	}
	pag := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(bills, pag), nil
}
