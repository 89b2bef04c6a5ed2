package payment_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/storefront/internal/payment"
	"github.com/vasiliy-maslov/storefront/internal/validation"
)

var now = time.Date(2026, time.October, 14, 9, 30, 0, 0, time.UTC)

func fieldErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	var ve validation.Errors
	require.ErrorAs(t, err, &ve)
	return ve
}

func TestCardInput_Validate(t *testing.T) {
	v := validation.New()
	valid := payment.CardInput{
		Number: "4242 4242 4242 4242",
		Holder: "Juan Dela Cruz",
		Expiry: "12/30",
		CVV:    "123",
	}

	t.Run("valid card", func(t *testing.T) {
		require.NoError(t, valid.Validate(v, now))
	})

	t.Run("expiry in the current month is accepted", func(t *testing.T) {
		c := valid
		c.Expiry = "10/26"
		require.NoError(t, c.Validate(v, now))
	})

	tests := []struct {
		name   string
		mutate func(*payment.CardInput)
		field  string
	}{
		{"luhn failure", func(c *payment.CardInput) { c.Number = "4242424242424241" }, "number"},
		{"too short", func(c *payment.CardInput) { c.Number = "424242424242" }, "number"},
		{"letters", func(c *payment.CardInput) { c.Number = "4242-4242-abcd-4242" }, "number"},
		{"expired", func(c *payment.CardInput) { c.Expiry = "09/26" }, "expiry"},
		{"bad month", func(c *payment.CardInput) { c.Expiry = "13/30" }, "expiry"},
		{"bad format", func(c *payment.CardInput) { c.Expiry = "2030-12" }, "expiry"},
		{"short cvv", func(c *payment.CardInput) { c.CVV = "12" }, "cvv"},
		{"non-numeric cvv", func(c *payment.CardInput) { c.CVV = "12a" }, "cvv"},
		{"missing holder", func(c *payment.CardInput) { c.Holder = "" }, "holder_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			ve := fieldErrors(t, c.Validate(v, now))
			assert.Contains(t, ve, tt.field)
		})
	}
}

func TestCardInput_Descriptor(t *testing.T) {
	d := payment.CardInput{Number: "5555 5555 5555 4444", CVV: "999"}.Descriptor(1000)

	assert.Equal(t, payment.MethodCard, d.Method)
	assert.Equal(t, "mastercard", d.Provider)
	assert.Equal(t, "**** 4444", d.Detail)
	assert.NotContains(t, d.Detail, "5555 5555")
}

func TestCardBrand(t *testing.T) {
	assert.Equal(t, "visa", payment.CardBrand("4111111111111111"))
	assert.Equal(t, "mastercard", payment.CardBrand("2221000000000009"))
	assert.Equal(t, "amex", payment.CardBrand("378282246310005"))
	assert.Equal(t, "jcb", payment.CardBrand("3530111333300000"))
	assert.Equal(t, "card", payment.CardBrand("6011111111111117"))
}

func TestEWalletInput_Validate(t *testing.T) {
	v := validation.New()

	require.NoError(t, payment.EWalletInput{Provider: "gcash", Mobile: "09171234567"}.Validate(v, now))

	ve := fieldErrors(t, payment.EWalletInput{Provider: "paypal", Mobile: "9171234567"}.Validate(v, now))
	assert.Contains(t, ve, "provider")
	assert.Contains(t, ve, "mobile_number")

	ve = fieldErrors(t, payment.EWalletInput{Provider: "maya", Mobile: "08171234567"}.Validate(v, now))
	assert.Equal(t, "Field 'mobile_number' must start with '09'", ve["mobile_number"])

	d := payment.EWalletInput{Provider: "maya", Mobile: "09171234567"}.Descriptor(0)
	assert.Equal(t, "Maya", d.Label)
	assert.Equal(t, "0917***4567", d.Detail)
}

func TestBankTransferInput_Validate(t *testing.T) {
	v := validation.New()

	require.NoError(t, payment.BankTransferInput{Bank: "bpi", AccountHolder: "Ana Reyes", Consent: true}.Validate(v, now))

	ve := fieldErrors(t, payment.BankTransferInput{Bank: "gringotts", AccountHolder: "Ana Reyes"}.Validate(v, now))
	assert.Equal(t, "Field 'bank' must be a supported bank", ve["bank"])
	assert.Equal(t, "Field 'consent' is required", ve["consent"])
}

func TestBNPLInput(t *testing.T) {
	v := validation.New()

	in := payment.BNPLInput{Provider: "billease", Term: 6, AcceptedTerms: true}
	require.NoError(t, in.Validate(v, now))

	d := in.Descriptor(22400)
	assert.Equal(t, 6, d.Term)
	assert.Equal(t, int64(3734), d.Installment)

	ve := fieldErrors(t, payment.BNPLInput{Provider: "atome", Term: 4}.Validate(v, now))
	assert.Contains(t, ve, "term_months")
	assert.Contains(t, ve, "accepted_terms")
}

func TestInstallment(t *testing.T) {
	assert.Equal(t, int64(7467), payment.Installment(22400, 3))
	assert.Equal(t, int64(1000), payment.Installment(12000, 12))
	assert.Equal(t, int64(500), payment.Installment(500, 0))
}

func TestParseMethod(t *testing.T) {
	for in, want := range map[string]payment.Method{
		"card":              payment.MethodCard,
		"credit-card":       payment.MethodCard,
		"ewallet":           payment.MethodEWallet,
		"E-Wallet":          payment.MethodEWallet,
		"online-banking":    payment.MethodBankTransfer,
		"bank-transfer":     payment.MethodBankTransfer,
		"bank_transfer":     payment.MethodBankTransfer,
		"bnpl":              payment.MethodBNPL,
		"buy-now-pay-later": payment.MethodBNPL,
		"pay-later":         payment.MethodBNPL,
		"Pay Later":         payment.MethodBNPL,
	} {
		got, err := payment.ParseMethod(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := payment.ParseMethod("cash")
	require.ErrorIs(t, err, payment.ErrUnknownMethod)
}

func TestDecodeInput(t *testing.T) {
	in, err := payment.DecodeInput(payment.MethodBNPL, []byte(`{"provider":"atome","term_months":3,"accepted_terms":true}`))
	require.NoError(t, err)
	assert.Equal(t, payment.MethodBNPL, in.Method())
	require.NoError(t, in.Validate(validation.New(), now))

	_, err = payment.DecodeInput(payment.MethodCard, []byte(`{"number":`))
	require.Error(t, err)

	_, err = payment.DecodeInput("cod", []byte(`{}`))
	require.ErrorIs(t, err, payment.ErrUnknownMethod)
}
