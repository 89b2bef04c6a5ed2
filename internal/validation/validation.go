// Package validation wraps go-playground/validator with the storefront's custom rules
// and turns validator failures into field-keyed messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	mobilePattern     = regexp.MustCompile(`^(09|\+639)\d{9}$`)
	postalCodePattern = regexp.MustCompile(`^\d{4}$`)
)

// Errors maps a JSON field name to a human readable message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Err returns e as an error, or nil when empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Validator validates structs tagged with `validate`.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("ph_mobile", func(fl validator.FieldLevel) bool {
		return IsMobileNumber(fl.Field().String())
	})
	_ = v.RegisterValidation("postal_code", func(fl validator.FieldLevel) bool {
		return postalCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("luhn", func(fl validator.FieldLevel) bool {
		return IsCardNumber(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct validates s and returns Errors on rule violations.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validation: %w", err)
	}

	out := make(Errors, len(ves))
	for _, fe := range ves {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", field)
	case "email":
		return fmt.Sprintf("Field '%s' must be a valid email address", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field '%s' must be at least %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("Field '%s' must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Field '%s' must be at most %s characters long", field, fe.Param())
		}
		return fmt.Sprintf("Field '%s' must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("Field '%s' must be exactly %s characters long", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("Field '%s' must contain only digits", field)
	case "startswith":
		return fmt.Sprintf("Field '%s' must start with '%s'", field, fe.Param())
	case "gt":
		return fmt.Sprintf("Field '%s' must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of: %s", field, fe.Param())
	case "ph_mobile":
		return fmt.Sprintf("Field '%s' must be a valid mobile number", field)
	case "postal_code":
		return fmt.Sprintf("Field '%s' must be a 4-digit postal code", field)
	case "luhn":
		return fmt.Sprintf("Field '%s' must be a valid card number", field)
	default:
		return fmt.Sprintf("Field '%s' failed on the '%s' rule", field, fe.Tag())
	}
}

// IsMobileNumber accepts 09XXXXXXXXX and +639XXXXXXXXX numbers.
func IsMobileNumber(s string) bool {
	return mobilePattern.MatchString(strings.ReplaceAll(s, " ", ""))
}

// Digits strips spaces and dashes; it returns "" if anything else is not a digit.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			return ""
		}
	}
	return b.String()
}

// IsCardNumber checks length (13-19 digits) and the Luhn checksum.
func IsCardNumber(s string) bool {
	digits := Digits(s)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}
