package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"calorietrack/apperrors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// validate reads the same `binding` tags gin checks on ShouldBindJSON, so
// services can enforce them on input that never passed through a handler.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(jsonFieldName)
	return v
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

var ginNamesOnce sync.Once

// UseJSONFieldNames makes gin's binding validator report json field names,
// matching ValidateStruct.
func UseJSONFieldNames() {
	ginNamesOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(jsonFieldName)
		}
	})
}

// ValidateStruct checks s against its binding tags.
func ValidateStruct(op string, s any) error {
	if err := validate.Struct(s); err != nil {
		return InputError(op, err)
	}
	return nil
}

// InputError converts a bind or validation failure into an InvalidInput
// error naming the first offending field.
func InputError(op string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.InvalidInput(op, "invalid request body")
	}
	return apperrors.InvalidInput(op, describeFieldError(verrs[0]))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "gte":
		if fe.Param() == "0" {
			return field + " cannot be negative"
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return field + " is invalid"
}
