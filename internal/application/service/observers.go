package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/enum"
	"github.com/sangkips/bookshop-pos/internal/domain/order"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/email"
)

// Mailer sends order status e-mails
type Mailer interface {
	Enabled() bool
	SendOrderStatusEmail(to string, notice email.OrderStatusNotice) error
}

// EmailObserver mails the customer whenever their order changes status
type EmailObserver struct {
	mailer     Mailer
	userRepo   repository.UserRepository
	billRepo   repository.BillRepository
	adminEmail string
}

func NewEmailObserver(mailer Mailer, userRepo repository.UserRepository, billRepo repository.BillRepository) *EmailObserver {
	return &EmailObserver{mailer: mailer, userRepo: userRepo, billRepo: billRepo}
}

// WithAdminCopy also mails addr whenever a new collection request awaits review
func (o *EmailObserver) WithAdminCopy(addr string) *EmailObserver {
	o.adminEmail = addr
	return o
}

func (o *EmailObserver) ID() string { return "email" }

func (o *EmailObserver) Update(ctx context.Context, event order.Event) error {
	if o.mailer == nil || !o.mailer.Enabled() || event.CustomerID == uuid.Nil {
		return nil
	}
	customer, err := o.userRepo.GetByID(ctx, event.CustomerID)
	if err != nil {
		return errors.Wrap(err, "load customer")
	}
	if customer == nil || customer.Email == "" {
		return nil
	}

	notice := email.OrderStatusNotice{
		CustomerName: customer.DisplayName(),
		BillNumber:   event.BillNumber,
		From:         event.From.String(),
		Status:       event.Status.String(),
		Message:      event.Message,
	}
	if bill, err := o.billRepo.GetByID(ctx, event.BillID); err == nil && bill != nil {
		notice.Total = bill.Total.StringFixed(2)
	}

	if err := o.mailer.SendOrderStatusEmail(customer.Email, notice); err != nil {
		return errors.Wrapf(err, "mail %s", customer.Email)
	}
	if o.adminEmail != "" && event.Status == enum.BillStatusCollectionRequest {
		if err := o.mailer.SendOrderStatusEmail(o.adminEmail, notice); err != nil {
			return errors.Wrapf(err, "mail %s", o.adminEmail)
		}
	}
	return nil
}

// InventoryObserver puts books back on the shelf when an order that had
// already taken them from stock is cancelled.
type InventoryObserver struct {
	billRepo repository.BillRepository
	bookRepo repository.BookRepository
	settings *SettingsService
	// used when AUTO_RESTOCK_ENABLED is not stored
	restockDefault bool
}

func NewInventoryObserver(billRepo repository.BillRepository, bookRepo repository.BookRepository, settings *SettingsService) *InventoryObserver {
	return &InventoryObserver{billRepo: billRepo, bookRepo: bookRepo, settings: settings, restockDefault: true}
}

// WithRestockDefault sets the behaviour used when the shop has no AUTO_RESTOCK_ENABLED setting
func (o *InventoryObserver) WithRestockDefault(enabled bool) *InventoryObserver {
	o.restockDefault = enabled
	return o
}

func (o *InventoryObserver) ID() string { return "inventory" }

func (o *InventoryObserver) Update(ctx context.Context, event order.Event) error {
	if event.Status != enum.BillStatusCancelled || !heldStock(event.From) {
		return nil
	}
	if o.settings != nil && !o.settings.AutoRestockEnabled(ctx, o.restockDefault) {
		log.WithField("bill_number", event.BillNumber).Info("auto restock disabled, stock left unchanged")
		return nil
	}

	bill, err := o.billRepo.GetByID(ctx, event.BillID)
	if err != nil {
		return errors.Wrap(err, "load bill")
	}
	if bill == nil || len(bill.Items) == 0 {
		return nil
	}
	if err := o.bookRepo.AtomicIncrementBatch(ctx, stockChanges(bill.Items)); err != nil {
		return errors.Wrap(err, "restore stock")
	}
	log.WithFields(log.Fields{
		"bill_number": bill.BillNumber,
		"lines":       len(bill.Items),
	}).Info("stock restored")
	return nil
}

// heldStock reports whether a bill in status has taken its books from stock
func heldStock(status enum.BillStatus) bool {
	switch status {
	case enum.BillStatusPending, enum.BillStatusProcessing, enum.BillStatusBilling:
		return true
	}
	return false
}

// AuditObserver writes one log line per transition
type AuditObserver struct {
	logger log.FieldLogger
}

func NewAuditObserver(logger log.FieldLogger) *AuditObserver {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &AuditObserver{logger: logger}
}

func (o *AuditObserver) ID() string { return "audit" }

func (o *AuditObserver) Update(_ context.Context, event order.Event) error {
	o.logger.WithFields(log.Fields{
		"bill_id":     event.BillID,
		"bill_number": event.BillNumber,
		"customer_id": event.CustomerID,
		"from":        event.From.String(),
		"status":      event.Status.String(),
		"at":          event.At,
	}).Info(event.Message)
	return nil
}
