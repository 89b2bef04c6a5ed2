package order

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/checkout"
	"github.com/vasiliy-maslov/storefront/internal/payment"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

func (s PaymentStatus) String() string {
	return string(s)
}

func (s PaymentStatus) Valid() bool {
	_, ok := allowedPaymentTransitions[s]
	return ok
}

type DeliveryStatus string

const (
	DeliveryConfirmed DeliveryStatus = "confirmed"
	DeliveryPreparing DeliveryStatus = "preparing"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
)

// deliveryFlow is the only order delivery may advance in.
var deliveryFlow = []DeliveryStatus{
	DeliveryConfirmed,
	DeliveryPreparing,
	DeliveryInTransit,
	DeliveryDelivered,
}

func (s DeliveryStatus) String() string {
	return string(s)
}

func (s DeliveryStatus) Valid() bool {
	return s.position() >= 0
}

func (s DeliveryStatus) position() int {
	for i, d := range deliveryFlow {
		if d == s {
			return i
		}
	}
	return -1
}

type Order struct {
	ID             uuid.UUID                `json:"id"`
	Number         string                   `json:"order_number"`
	Items          []cart.Item              `json:"items"`
	Totals         cart.Totals              `json:"totals"`
	Shipping       checkout.ShippingAddress `json:"shipping"`
	Billing        checkout.BillingAddress  `json:"billing"`
	PaymentMethod  *payment.Descriptor      `json:"payment_method,omitempty"`
	PaymentStatus  PaymentStatus            `json:"payment_status"`
	DeliveryStatus DeliveryStatus           `json:"delivery_status"`
	TransactionRef string                   `json:"transaction_ref,omitempty"`
	Attempts       int                      `json:"payment_attempts"`
	CreatedAt      time.Time                `json:"created_at"`
	UpdatedAt      time.Time                `json:"updated_at"`
	PaidAt         *time.Time               `json:"paid_at,omitempty"`
}

// Draft is an order before it is stamped by the store. Items and totals must
// already be a frozen copy of the cart.
type Draft struct {
	Items         []cart.Item
	Totals        cart.Totals
	Shipping      checkout.ShippingAddress
	Billing       checkout.BillingAddress
	PaymentMethod *payment.Descriptor
	PaymentStatus PaymentStatus
}

// clone returns a copy of o that shares no memory with it.
func (o Order) clone() Order {
	o.Items = cart.CloneItems(o.Items)
	if o.PaymentMethod != nil {
		pm := *o.PaymentMethod
		o.PaymentMethod = &pm
	}
	if o.PaidAt != nil {
		paidAt := *o.PaidAt
		o.PaidAt = &paidAt
	}
	return o
}
