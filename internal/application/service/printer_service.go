package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
	"github.com/sangkips/bookshop-pos/internal/domain/repository"
	"github.com/sangkips/bookshop-pos/pkg/apperror"
	"github.com/sangkips/bookshop-pos/pkg/printer"
)

const defaultFooter = "Thank you for shopping with us!"

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer  printer.Printer
	billRepo repository.BillRepository
	settings *SettingsService
	width    int
	now      func() time.Time
}

// NewPrinterService creates a new printer service. width is the paper width in characters.
func NewPrinterService(p printer.Printer, billRepo repository.BillRepository, settings *SettingsService, width int) *PrinterService {
	if p == nil {
		p = printer.NewNullPrinter()
	}
	return &PrinterService{
		printer:  p,
		billRepo: billRepo,
		settings: settings,
		width:    width,
		now:      time.Now,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// Status returns printer connection status.
func (s *PrinterService) Status() *PrinterStatus {
	kind := s.printer.Type()
	return &PrinterStatus{
		Configured: kind != "none",
		Connected:  s.printer.IsConnected(),
		Type:       kind,
	}
}

// TestPrint sends a sample receipt with the configured company header.
// The receipt is returned even when printing fails so it can be previewed.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	header, footer, err := s.settings.CompanyInfo(ctx)
	if err != nil {
		return nil, err
	}
	receipt := &entity.Receipt{
		Header:        header,
		BillNumber:    "TEST-001",
		Date:          s.now().Format("2006-01-02 15:04"),
		Cashier:       "System",
		PaymentMethod: "CASH",
		Items: []entity.ReceiptItem{
			{Title: "Test Book 1", Quantity: 1, UnitPrice: decimal.NewFromInt(10), Total: decimal.NewFromInt(10)},
			{Title: "Test Book 2", Quantity: 2, UnitPrice: decimal.NewFromInt(5), Total: decimal.NewFromInt(10)},
		},
		Subtotal:       decimal.NewFromInt(20),
		Discount:       decimal.Zero,
		Tax:            decimal.Zero,
		DeliveryCharge: decimal.Zero,
		Total:          decimal.NewFromInt(20),
		Footer:         footer,
	}

	if err := s.printer.Print(FormatReceipt(receipt, s.width)); err != nil {
		return receipt, errors.Wrap(err, "test print failed")
	}
	return receipt, nil
}

// PrintBill fetches a bill and prints its receipt.
func (s *PrinterService) PrintBill(ctx context.Context, billID uuid.UUID) (*entity.Receipt, error) {
	bill, err := s.billRepo.GetByID(ctx, billID)
	if err != nil {
		return nil, persistenceError(err)
	}
	if bill == nil {
		return nil, apperror.NewNotFoundError("Bill")
	}

	header, footer, err := s.settings.CompanyInfo(ctx)
	if err != nil {
		return nil, err
	}
	receipt := BuildReceipt(bill, header, footer)

	if err := s.printer.Print(FormatReceipt(receipt, s.width)); err != nil {
		log.WithError(err).WithField("bill_number", bill.BillNumber).Error("printer error")
		return receipt, errors.Wrap(err, "failed to print receipt")
	}
	return receipt, nil
}

// BuildReceipt composes the printable view of a bill
func BuildReceipt(bill *entity.Bill, header entity.ReceiptHeader, footer string) *entity.Receipt {
	receipt := &entity.Receipt{
		Header:         header,
		BillNumber:     bill.BillNumber,
		Date:           bill.BillDate.Format("2006-01-02 15:04"),
		PaymentMethod:  bill.PaymentMethod,
		Subtotal:       bill.Subtotal,
		Discount:       bill.Discount,
		Tax:            bill.Tax,
		DeliveryCharge: bill.DeliveryCharge,
		Total:          bill.Total,
		Footer:         footer,
		Items:          make([]entity.ReceiptItem, 0, len(bill.Items)),
	}
	if bill.Cashier != nil {
		receipt.Cashier = bill.Cashier.DisplayName()
	}
	if bill.Customer != nil {
		receipt.Customer = bill.Customer.DisplayName()
		receipt.AccountNumber = bill.Customer.Account()
	}

	for _, line := range bill.Items {
		title := line.Title
		if title == "" && line.Book != nil {
			title = line.Book.Title
		}
		if title == "" {
			title = "Book"
		}
		receipt.Items = append(receipt.Items, entity.ReceiptItem{
			Title:           title,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			DiscountPercent: line.DiscountPercent,
			Total:           line.Total,
		})
	}
	return receipt
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(printer.Truncate(r.Header.CompanyName, doc.Width()/2)).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	for _, line := range []string{r.Header.Address, r.Header.Phone, r.Header.Email} {
		if line != "" {
			doc.Text(line)
		}
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Bill:", r.BillNumber).
		KeyValue("Date:", r.Date)

	if r.Cashier != "" {
		doc.KeyValue("Cashier:", r.Cashier)
	}
	if r.Customer != "" {
		doc.KeyValue("Customer:", r.Customer)
	}
	if r.AccountNumber != "" {
		doc.KeyValue("Account:", r.AccountNumber)
	}
	if r.PaymentMethod != "" {
		doc.KeyValue("Payment:", r.PaymentMethod)
	}

	doc.Separator('-')

	// Items
	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Title, money(item.Total))
		if item.Quantity > 1 {
			doc.TextF("  @ %s each", money(item.UnitPrice))
		}
		if item.DiscountPercent.IsPositive() {
			doc.TextF("  less %s%%", item.DiscountPercent.String())
		}
	}

	doc.Separator('-')

	// Totals
	doc.KeyValue("Subtotal:", money(r.Subtotal))
	if r.Discount.IsPositive() {
		doc.KeyValue("Discount:", "-"+money(r.Discount))
	}
	doc.KeyValue("Tax:", money(r.Tax))
	if r.DeliveryCharge.IsPositive() {
		doc.KeyValue("Delivery:", money(r.DeliveryCharge))
	}
	doc.SetBold(true).
		KeyValue("TOTAL:", money(r.Total)).
		SetBold(false)

	doc.Separator('-')

	footer := r.Footer
	if footer == "" {
		footer = defaultFooter
	}
	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text(footer).
		LineFeed().
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
