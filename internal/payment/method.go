package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vasiliy-maslov/storefront/internal/validation"
)

var ErrUnknownMethod = errors.New("payment: unknown method")

type Method string

const (
	MethodCard         Method = "card"
	MethodEWallet      Method = "ewallet"
	MethodBankTransfer Method = "bank_transfer"
	MethodBNPL         Method = "bnpl"
)

var methodPrefixes = map[Method]string{
	MethodCard:         "CARD",
	MethodEWallet:      "EW",
	MethodBankTransfer: "BT",
	MethodBNPL:         "BNPL",
}

func (m Method) Valid() bool {
	_, ok := methodPrefixes[m]
	return ok
}

func (m Method) String() string {
	return string(m)
}

// ParseMethod accepts the method names used in URLs.
func ParseMethod(s string) (Method, error) {
	key := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	m, ok := methodAliases[key]
	if !ok {
		m = Method(key)
	}
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
	return m, nil
}

// methodAliases maps route spellings, with dashes and spaces folded to
// underscores, onto methods.
var methodAliases = map[string]Method{
	"credit_card":       MethodCard,
	"debit_card":        MethodCard,
	"e_wallet":          MethodEWallet,
	"online_banking":    MethodBankTransfer,
	"buy_now_pay_later": MethodBNPL,
	"pay_later":         MethodBNPL,
	"paylater":          MethodBNPL,
}

// Descriptor is what an order remembers about the chosen method. It never
// carries full card numbers, CVVs or account secrets.
type Descriptor struct {
	Method      Method `json:"method"`
	Label       string `json:"label"`
	Provider    string `json:"provider,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Term        int    `json:"term_months,omitempty"`
	Installment int64  `json:"monthly_installment,omitempty"`
}

// Input is the method-specific form a shopper submits to pay.
type Input interface {
	Method() Method
	Validate(v *validation.Validator, now time.Time) error
	Descriptor(amount int64) Descriptor
}

// DecodeInput decodes the JSON form of method m.
func DecodeInput(m Method, data []byte) (Input, error) {
	var in Input
	switch m {
	case MethodCard:
		in = &CardInput{}
	case MethodEWallet:
		in = &EWalletInput{}
	case MethodBankTransfer:
		in = &BankTransferInput{}
	case MethodBNPL:
		in = &BNPLInput{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, m)
	}

	if err := json.Unmarshal(data, in); err != nil {
		return nil, fmt.Errorf("payment: failed to decode %s input: %w", m, err)
	}
	return in, nil
}

// CardInput is a credit or debit card.
type CardInput struct {
	Number string `json:"number" validate:"required,luhn"`
	Holder string `json:"holder_name" validate:"required,min=2"`
	Expiry string `json:"expiry" validate:"required"`
	CVV    string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

func (CardInput) Method() Method { return MethodCard }

func (c CardInput) Validate(v *validation.Validator, now time.Time) error {
	errs, err := fieldErrors(v.Struct(c))
	if err != nil {
		return err
	}

	if c.Expiry != "" {
		month, year, err := parseExpiry(c.Expiry)
		switch {
		case err != nil:
			errs.Add("expiry", "Field 'expiry' must use the MM/YY format")
		case expired(month, year, now):
			errs.Add("expiry", "Field 'expiry' is in the past")
		}
	}

	return errs.Err()
}

func (c CardInput) Descriptor(int64) Descriptor {
	digits := validation.Digits(c.Number)
	d := Descriptor{
		Method:   MethodCard,
		Label:    "Credit/Debit Card",
		Provider: CardBrand(digits),
	}
	if len(digits) >= 4 {
		d.Detail = "**** " + digits[len(digits)-4:]
	}
	return d
}

// CardBrand guesses the network from the leading digits.
func CardBrand(digits string) string {
	switch {
	case strings.HasPrefix(digits, "4"):
		return "visa"
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return "amex"
	case strings.HasPrefix(digits, "35"):
		return "jcb"
	case len(digits) >= 2 && digits[0] == '5' && digits[1] >= '1' && digits[1] <= '5':
		return "mastercard"
	case len(digits) >= 4:
		if p, err := strconv.Atoi(digits[:4]); err == nil && p >= 2221 && p <= 2720 {
			return "mastercard"
		}
	}
	return "card"
}

// EWalletInput pays through a mobile wallet linked to an 09XXXXXXXXX number.
type EWalletInput struct {
	Provider string `json:"provider" validate:"required,oneof=gcash maya grabpay"`
	Mobile   string `json:"mobile_number" validate:"required,numeric,len=11,startswith=09"`
}

var walletNames = map[string]string{
	"gcash":   "GCash",
	"maya":    "Maya",
	"grabpay": "GrabPay",
}

func (EWalletInput) Method() Method { return MethodEWallet }

func (e EWalletInput) Validate(v *validation.Validator, _ time.Time) error {
	return v.Struct(e)
}

func (e EWalletInput) Descriptor(int64) Descriptor {
	d := Descriptor{
		Method:   MethodEWallet,
		Label:    "E-Wallet",
		Provider: e.Provider,
	}
	if name, ok := walletNames[e.Provider]; ok {
		d.Label = name
	}
	if len(e.Mobile) == 11 {
		d.Detail = e.Mobile[:4] + "***" + e.Mobile[7:]
	}
	return d
}

// Banks lists the online banking partners by code.
var Banks = map[string]string{
	"bdo":           "BDO Unibank",
	"bpi":           "Bank of the Philippine Islands",
	"metrobank":     "Metrobank",
	"landbank":      "Land Bank of the Philippines",
	"unionbank":     "UnionBank",
	"security_bank": "Security Bank",
	"pnb":           "Philippine National Bank",
	"rcbc":          "RCBC",
	"chinabank":     "China Bank",
}

// BankTransferInput is an online banking debit the shopper consents to.
type BankTransferInput struct {
	Bank          string `json:"bank" validate:"required"`
	AccountHolder string `json:"account_holder" validate:"required,min=2"`
	Consent       bool   `json:"consent" validate:"required"`
}

func (BankTransferInput) Method() Method { return MethodBankTransfer }

func (b BankTransferInput) Validate(v *validation.Validator, _ time.Time) error {
	errs, err := fieldErrors(v.Struct(b))
	if err != nil {
		return err
	}
	if _, ok := Banks[b.Bank]; b.Bank != "" && !ok {
		errs.Add("bank", "Field 'bank' must be a supported bank")
	}
	return errs.Err()
}

func (b BankTransferInput) Descriptor(int64) Descriptor {
	return Descriptor{
		Method:   MethodBankTransfer,
		Label:    "Online Banking",
		Provider: b.Bank,
		Detail:   Banks[b.Bank],
	}
}

// BNPLInput splits the order total into monthly installments.
type BNPLInput struct {
	Provider      string `json:"provider" validate:"required,oneof=billease atome home_credit"`
	Term          int    `json:"term_months" validate:"required,oneof=3 6 12"`
	AcceptedTerms bool   `json:"accepted_terms" validate:"required"`
}

func (BNPLInput) Method() Method { return MethodBNPL }

func (b BNPLInput) Validate(v *validation.Validator, _ time.Time) error {
	return v.Struct(b)
}

func (b BNPLInput) Descriptor(amount int64) Descriptor {
	return Descriptor{
		Method:      MethodBNPL,
		Label:       "Buy Now, Pay Later",
		Provider:    b.Provider,
		Detail:      fmt.Sprintf("%d months", b.Term),
		Term:        b.Term,
		Installment: Installment(amount, b.Term),
	}
}

// Installment is the monthly amount, rounded up so the term covers the total.
func Installment(amount int64, term int) int64 {
	if term <= 0 {
		return amount
	}
	t := int64(term)
	return (amount + t - 1) / t
}

// fieldErrors lets method checks append to the validator's field errors.
func fieldErrors(err error) (validation.Errors, error) {
	if err == nil {
		return validation.Errors{}, nil
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		return errs, nil
	}
	return nil, err
}

func parseExpiry(s string) (month, year int, err error) {
	mm, yy, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || len(mm) != 2 || len(yy) != 2 {
		return 0, 0, fmt.Errorf("payment: malformed expiry %q", s)
	}
	if month, err = strconv.Atoi(mm); err != nil || month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("payment: malformed expiry month %q", s)
	}
	if year, err = strconv.Atoi(yy); err != nil {
		return 0, 0, fmt.Errorf("payment: malformed expiry year %q", s)
	}
	return month, 2000 + year, nil
}

// expired reports whether the card stopped being valid before now's month.
func expired(month, year int, now time.Time) bool {
	if year != now.Year() {
		return year < now.Year()
	}
	return month < int(now.Month())
}
