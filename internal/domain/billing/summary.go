package billing

import (
	"fmt"
	"strings"

	"github.com/sangkips/bookshop-pos/internal/domain/entity"
)

// Summary renders a plain text summary of a bill. Amounts are shown to two
// places; the stored values keep their full precision.
func Summary(bill *entity.Bill) string {
	var sb strings.Builder
	sb.WriteString("Bill Summary:\n")
	fmt.Fprintf(&sb, "Bill Number: %s\n", bill.BillNumber)
	if bill.Customer != nil {
		fmt.Fprintf(&sb, "Customer: %s\n", bill.Customer.DisplayName())
		fmt.Fprintf(&sb, "Account: %s\n", bill.Customer.Account())
	}
	fmt.Fprintf(&sb, "Units Consumed: %d\n", bill.UnitsConsumed)
	fmt.Fprintf(&sb, "Subtotal: $%s\n", bill.Subtotal.StringFixed(2))
	fmt.Fprintf(&sb, "Discount: $%s\n", bill.Discount.StringFixed(2))
	fmt.Fprintf(&sb, "Tax: $%s\n", bill.Tax.StringFixed(2))
	if bill.IsDelivery {
		fmt.Fprintf(&sb, "Delivery Charge: $%s\n", bill.DeliveryCharge.StringFixed(2))
	}
	fmt.Fprintf(&sb, "Total: $%s\n", bill.Total.StringFixed(2))
	fmt.Fprintf(&sb, "Payment Method: %s\n", bill.PaymentMethod)
	fmt.Fprintf(&sb, "Status: %s\n", bill.Status)
	return sb.String()
}
