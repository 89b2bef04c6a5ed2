package checkout

type Step string

const (
	StepShipping Step = "shipping"
	StepBilling  Step = "billing"
	StepPayment  Step = "payment"
)

var stepOrder = map[Step]int{
	StepShipping: 0,
	StepBilling:  1,
	StepPayment:  2,
}

func (s Step) Valid() bool {
	_, ok := stepOrder[s]
	return ok
}

func (s Step) String() string {
	return string(s)
}

// ShippingAddress is the delivery snapshot captured at checkout.
type ShippingAddress struct {
	FirstName  string `json:"first_name" validate:"required,min=2"`
	LastName   string `json:"last_name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,ph_mobile"`
	Street     string `json:"street" validate:"required"`
	District   string `json:"district" validate:"required"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required,postal_code"`
	Notes      string `json:"notes,omitempty" validate:"max=250"`
}

// BillingAddress is the invoicing snapshot. SameAsShipping marks a verbatim copy.
type BillingAddress struct {
	FirstName      string `json:"first_name" validate:"required,min=2"`
	LastName       string `json:"last_name" validate:"required,min=2"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,ph_mobile"`
	Company        string `json:"company,omitempty" validate:"max=100"`
	Street         string `json:"street" validate:"required"`
	District       string `json:"district" validate:"required"`
	City           string `json:"city" validate:"required"`
	Province       string `json:"province" validate:"required"`
	PostalCode     string `json:"postal_code" validate:"required,postal_code"`
	SameAsShipping bool   `json:"same_as_shipping"`
}

// BillingFromShipping copies a shipping snapshot into a billing one.
func BillingFromShipping(s ShippingAddress) BillingAddress {
	return BillingAddress{
		FirstName:      s.FirstName,
		LastName:       s.LastName,
		Email:          s.Email,
		Phone:          s.Phone,
		Street:         s.Street,
		District:       s.District,
		City:           s.City,
		Province:       s.Province,
		PostalCode:     s.PostalCode,
		SameAsShipping: true,
	}
}

// State is a copy of the session for callers.
type State struct {
	Step     Step             `json:"step"`
	Furthest Step             `json:"furthest_step"`
	Shipping *ShippingAddress `json:"shipping,omitempty"`
	Billing  *BillingAddress  `json:"billing,omitempty"`
}
