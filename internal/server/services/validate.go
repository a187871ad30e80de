package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nownpp/data-hub-entry/internal/common"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^[\d+\-\s()]+$`)

// newValidator returns a validator that names fields by their json tag and
// knows the "phone" rule.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	v.RegisterStructValidation(validatePricing, PricingInput{})
	return v
}

func validatePricing(sl validator.StructLevel) {
	in := sl.Current().Interface().(PricingInput)

	if !in.ServicePrice.IsPositive() {
		sl.ReportError(in.ServicePrice, "service_price", "ServicePrice", "positive", "")
	}
	if in.CommissionAmount.IsNegative() {
		sl.ReportError(in.CommissionAmount, "commission_amount", "CommissionAmount", "nonnegative", "")
	}
	if in.ServicePrice.IsPositive() && in.CommissionAmount.GreaterThanOrEqual(in.ServicePrice) {
		sl.ReportError(in.CommissionAmount, "commission_amount", "CommissionAmount", "lt_price", "")
	}
	if !hasCents(in.ServicePrice) {
		sl.ReportError(in.ServicePrice, "service_price", "ServicePrice", "cents", "")
	}
	if !hasCents(in.CommissionAmount) {
		sl.ReportError(in.CommissionAmount, "commission_amount", "CommissionAmount", "cents", "")
	}
}

// hasCents reports whether d fits the NUMERIC(14,2) columns without rounding.
func hasCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

// validationError turns validator output into a common.ErrValidation with a
// message fit for clients.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", common.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "phone":
		return f + " may contain only digits, spaces, +, -, ( and )"
	case "positive":
		return f + " must be greater than zero"
	case "nonnegative":
		return f + " must not be negative"
	case "lt_price":
		return f + " must be less than service_price"
	case "cents":
		return f + " must have at most two decimal places"
	default:
		return f + " is invalid"
	}
}
