package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/restaurant/internal/domain"
	"github.com/YelzhanWeb/restaurant/internal/interfaces"
)

// Message is an email-shaped rendering of an order event.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Render turns an event into the message a mail transport would send.
// adminEmail receives admin alerts.
func Render(ev interfaces.OrderEventMessage, adminEmail string) Message {
	o := ev.Order
	var b strings.Builder

	switch ev.Kind {
	case domain.NotifyAdminAlert:
		fmt.Fprintf(&b, "New order received!\n\nOrder ID: #%d\n", o.ID)
		fmt.Fprintf(&b, "Customer: %s (%s)\nPhone: %s\nAddress: %s\n\n", o.Customer.Name, o.Customer.Email, o.Customer.Phone, o.Customer.Address)
		writeItems(&b, o)
		b.WriteString("\nPlease check the admin dashboard for details.")
		return Message{To: adminEmail, Subject: fmt.Sprintf("New Order Received - Order #%d", o.ID), Body: b.String()}

	case domain.NotifyStatusChanged:
		fmt.Fprintf(&b, "Dear %s,\n\nYour order status has been updated to: %s.\n", o.Customer.Name, strings.ToUpper(string(o.Status)))
		if o.EstimatedReadyAt != nil && o.Status == domain.StatusPreparing {
			fmt.Fprintf(&b, "Estimated ready time: %s\n", o.EstimatedReadyAt.Format("2006-01-02 15:04 MST"))
		}
		fmt.Fprintf(&b, "\nOrder ID: #%d\n", o.ID)
		writeItems(&b, o)
		b.WriteString("\nThank you for choosing us!")
		return Message{To: o.Customer.Email, Subject: fmt.Sprintf("Order Status Update - Order #%d", o.ID), Body: b.String()}

	default:
		fmt.Fprintf(&b, "Dear %s,\n\nThank you for your order!\n\nOrder ID: #%d\n", o.Customer.Name, o.ID)
		writeItems(&b, o)
		b.WriteString("\nWe will notify you when your order status changes.")
		return Message{To: o.Customer.Email, Subject: fmt.Sprintf("Order Confirmation - Order #%d", o.ID), Body: b.String()}
	}
}

func writeItems(b *strings.Builder, o domain.Order) {
	b.WriteString("Items:\n")
	for _, it := range o.Items {
		line := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		fmt.Fprintf(b, "- %s (x%d): $%s\n", it.Name, it.Quantity, line.StringFixed(2))
	}
	fmt.Fprintf(b, "Total: $%s\n", o.Total.StringFixed(2))
}
