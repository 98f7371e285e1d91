package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	// Decimals are compared as float64 so gt/gte/required work on money fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// validateStruct runs the struct tags of s and returns nil or a *ValidationError.
// messages overrides the default text per "<field>.<tag>"; prefix is prepended to
// every reported field path.
func validateStruct(s interface{}, prefix string, messages map[string]string) *ValidationError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return newValidationError("_", err.Error())
	}

	ve := &ValidationError{}
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		if prefix != "" {
			path = prefix + "." + path
		}
		msg, ok := messages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = defaultMessage(fe)
		}
		ve.add(path, msg)
	}
	return ve
}

// fieldPath drops the leading struct type name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func defaultMessage(fe validator.FieldError) string {
	name := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("The %s field must have at least %s items.", name, fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	case "len":
		return fmt.Sprintf("The %s field must be %s characters.", name, fe.Param())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", name, fe.Param())
	case "gte":
		return fmt.Sprintf("The %s field must be at least %s.", name, fe.Param())
	case "alpha":
		return fmt.Sprintf("The %s field must only contain letters.", name)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "url":
		return fmt.Sprintf("The %s field must be a valid URL.", name)
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

// maxMoney is the largest value a NUMERIC(12,2) column holds.
var maxMoney = decimal.RequireFromString("9999999999.99")

// checkMoney enforces the precision and range of the NUMERIC(12,2) columns.
func checkMoney(ve *ValidationError, field string, d decimal.Decimal) {
	name := strings.ReplaceAll(field, "_", " ")
	switch {
	case !d.Equal(d.Round(2)):
		ve.add(field, "The "+name+" field must have at most 2 decimal places.")
	case d.Abs().GreaterThan(maxMoney):
		ve.add(field, "The "+name+" field must not be greater than "+maxMoney.StringFixed(2)+".")
	}
}
