package cart

import "github.com/shopspring/decimal"

// DefaultTaxRate is the VAT applied to the cart subtotal.
var DefaultTaxRate = decimal.RequireFromString("0.12")

// Item is a product line. Prices are integer currency units.
type Item struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Name      string `json:"name"`
	Image     string `json:"image,omitempty"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Finish    string `json:"finish,omitempty"`
	Thickness string `json:"thickness,omitempty"`
	Size      string `json:"size,omitempty"`
}

type Totals struct {
	Subtotal int64 `json:"subtotal"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Cart is a point-in-time copy of the cart contents.
type Cart struct {
	Items  []Item `json:"items"`
	Totals Totals `json:"totals"`
}

// ItemID is the identity of the line holding productID/variantID.
func ItemID(productID, variantID string) string {
	return productID + ":" + variantID
}

// ComputeTotals derives subtotal, tax and total from items.
// Tax is rounded half away from zero to whole currency units.
func ComputeTotals(items []Item, taxRate decimal.Decimal) Totals {
	var subtotal int64
	for _, it := range items {
		subtotal += it.Price * int64(it.Quantity)
	}

	tax := decimal.NewFromInt(subtotal).Mul(taxRate).Round(0).IntPart()

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// CloneItems returns a copy of items that shares no backing array. Never nil.
func CloneItems(items []Item) []Item {
	return append(make([]Item, 0, len(items)), items...)
}
