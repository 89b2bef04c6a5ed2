package address

import "time"

type Type string

const (
	TypeShipping Type = "shipping"
	TypeBilling  Type = "billing"
)

func (t Type) Valid() bool {
	return t == TypeShipping || t == TypeBilling
}

type Address struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type" validate:"required,oneof=shipping billing"`
	Label         string    `json:"label" validate:"required,max=50"`
	ContactName   string    `json:"contact_name" validate:"required,min=2"`
	ContactNumber string    `json:"contact_number" validate:"required,ph_mobile"`
	Street        string    `json:"street" validate:"required"`
	District      string    `json:"district" validate:"required"`
	City          string    `json:"city" validate:"required"`
	Province      string    `json:"province" validate:"required"`
	PostalCode    string    `json:"postal_code" validate:"required,postal_code"`
	IsDefault     bool      `json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}
