package usecase

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/DRSN-tech/inventory-backend/pkg/e"
	"github.com/go-playground/validator/v10"
)

// NewValidator создаёт валидатор, который называет поля по тегу field.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("field"); name != "" {
			return name
		}
		return f.Name
	})

	return v
}

// validateStruct проверяет запрос и приводит ошибку валидатора к ErrInvalidRequest с пояснением по первому полю.
func validateStruct(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return e.WithDetail(e.ErrInvalidRequest, "%v", err)
	}

	return e.WithDetail(e.ErrInvalidRequest, "%s", describeFieldError(fieldErrs[0]))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Namespace()
	// Namespace начинается с имени типа запроса
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s element(s)", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed on %s", field, fe.Tag())
	}
}
