package order

import (
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/checkout"
	"github.com/vasiliy-maslov/storefront/internal/payment"
)

type InvoiceLine struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Amount      int64  `json:"amount"`
}

// Invoice is a read-only view of a paid order.
type Invoice struct {
	Number         string                   `json:"invoice_number"`
	OrderID        uuid.UUID                `json:"order_id"`
	OrderNumber    string                   `json:"order_number"`
	IssuedAt       time.Time                `json:"issued_at"`
	BillTo         checkout.BillingAddress  `json:"bill_to"`
	ShipTo         checkout.ShippingAddress `json:"ship_to"`
	Lines          []InvoiceLine            `json:"lines"`
	Totals         cart.Totals              `json:"totals"`
	PaymentMethod  *payment.Descriptor      `json:"payment_method,omitempty"`
	TransactionRef string                   `json:"transaction_ref"`
	Status         PaymentStatus            `json:"status"`
}

// Invoice builds the invoice of a paid or refunded order.
func (s *Store) Invoice(id uuid.UUID) (Invoice, error) {
	o, err := s.Get(id)
	if err != nil {
		return Invoice{}, err
	}
	if o.PaymentStatus != PaymentPaid && o.PaymentStatus != PaymentRefunded {
		return Invoice{}, ErrInvoiceUnavailable
	}

	issued := o.UpdatedAt
	if o.PaidAt != nil {
		issued = *o.PaidAt
	}

	lines := make([]InvoiceLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, InvoiceLine{
			Description: describe(it),
			Quantity:    it.Quantity,
			UnitPrice:   it.Price,
			Amount:      it.Price * int64(it.Quantity),
		})
	}

	return Invoice{
		Number:         "INV-" + strings.TrimPrefix(o.Number, "ORD-"),
		OrderID:        o.ID,
		OrderNumber:    o.Number,
		IssuedAt:       issued,
		BillTo:         o.Billing,
		ShipTo:         o.Shipping,
		Lines:          lines,
		Totals:         o.Totals,
		PaymentMethod:  o.PaymentMethod,
		TransactionRef: o.TransactionRef,
		Status:         o.PaymentStatus,
	}, nil
}

func describe(it cart.Item) string {
	parts := []string{it.Name}
	for _, d := range []string{it.Finish, it.Thickness, it.Size} {
		if d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, ", ")
}
