package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var setup sync.Once

// Engine returns gin's validator configured with form/json field names and
// the custom rules used by request structs.
func Engine() *validator.Validate {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		panic("validation: gin validator engine is not go-playground/validator")
	}

	setup.Do(func() {
		v.RegisterTagNameFunc(fieldName)
		if err := v.RegisterValidation("decimal_between", decimalBetween); err != nil {
			panic(err)
		}
	})
	return v
}

// Struct validates s with the shared engine.
func Struct(s any) error {
	return Engine().Struct(s)
}

func fieldName(field reflect.StructField) string {
	for _, tag := range []string{"form", "json"} {
		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return field.Name
}

// decimalBetween accepts strings parseable as decimals within "min max".
func decimalBetween(fl validator.FieldLevel) bool {
	bounds := strings.Fields(fl.Param())
	if len(bounds) != 2 || fl.Field().Kind() != reflect.String {
		return false
	}

	value, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	if err != nil {
		return false
	}
	lo, errLo := decimal.NewFromString(bounds[0])
	hi, errHi := decimal.NewFromString(bounds[1])
	if errLo != nil || errHi != nil {
		return false
	}
	return !value.LessThan(lo) && !value.GreaterThan(hi)
}

// Fields converts validator errors to field -> message pairs. Any other
// error is reported under "request".
func Fields(err error) map[string]string {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fe.Field()
		if _, exists := fields[name]; !exists {
			fields[name] = Message(fe)
		}
	}
	return fields
}

// Message renders a single field error.
func Message(fe validator.FieldError) string {
	field := strings.ReplaceAll(fe.Field(), "_", " ")

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s may not be greater than %s.", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("The %s must be at least %s.", field, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("The %s must be between the allowed bounds.", field)
	case "oneof":
		return fmt.Sprintf("The %s must be one of: %s.", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "decimal_between":
		bounds := strings.Fields(fe.Param())
		if len(bounds) == 2 {
			return fmt.Sprintf("The %s must be between %s and %s.", field, bounds[0], bounds[1])
		}
		return fmt.Sprintf("The %s is out of range.", field)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "numeric", "number":
		return fmt.Sprintf("The %s must be a number.", field)
	default:
		return fmt.Sprintf("The %s is invalid.", field)
	}
}
