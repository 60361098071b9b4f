package model

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// BirthDateLayout is the dd-mm-yyyy layout customers provide
const BirthDateLayout = "02-01-2006"

var (
	taxIDPattern     = regexp.MustCompile(`^[0-9]{11}$`)
	birthDatePattern = regexp.MustCompile(`^[0-9]{2}-[0-9]{2}-[0-9]{4}$`)

	validate = newValidator()
)

var fieldMessages = map[string]string{
	"taxid":     "tax ID must contain exactly 11 digits",
	"birthdate": "birth date must use the dd-mm-yyyy format",
	"required":  "is required",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	rules := map[string]validator.Func{
		"taxid":     func(fl validator.FieldLevel) bool { return IsValidTaxID(fl.Field().String()) },
		"birthdate": func(fl validator.FieldLevel) bool { return IsValidBirthDate(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}
	return v
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsValidTaxID reports whether s is exactly 11 numeric digits
func IsValidTaxID(s string) bool {
	return taxIDPattern.MatchString(s)
}

// IsValidBirthDate reports whether s is a real date in dd-mm-yyyy form
func IsValidBirthDate(s string) bool {
	if !birthDatePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(BirthDateLayout, s)
	return err == nil
}

// ParseAmount parses user input into a positive amount
func ParseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "amount must be a number"}
	}
	if err := validateAmount(amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "amount must be positive"}
	}
	if !amount.Equal(amount.Round(2)) {
		return &ValidationError{Field: "amount", Message: "amount must have at most two decimal places"}
	}
	return nil
}

// validateStruct runs struct tag validation and reports the first failure as a ValidationError
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	msg, ok := fieldMessages[fe.Tag()]
	if !ok {
		msg = "is invalid"
	}
	if fe.Tag() == "required" || !ok {
		msg = fe.Field() + " " + msg
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
