package handlers

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var fiscalTypePattern = regexp.MustCompile(`^[A-Z][0-9]{2}$`)

// RegisterValidators adds the custom binding tags used by the request DTOs.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	if err := v.RegisterValidation("fiscaltype", validateFiscalType); err != nil {
		return fmt.Errorf("register fiscaltype: %w", err)
	}
	if err := v.RegisterValidation("decimalgte0", validateDecimalNonNegative); err != nil {
		return fmt.Errorf("register decimalgte0: %w", err)
	}
	return nil
}

// validateFiscalType accepts document type codes such as B01 or E31.
func validateFiscalType(fl validator.FieldLevel) bool {
	return fiscalTypePattern.MatchString(fl.Field().String())
}

// decimalValue exposes decimals to the validator as their canonical string.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		return d.String()
	}
	return nil
}

func validateDecimalNonNegative(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	return err == nil && !d.IsNegative()
}
