// Package validator checks request DTOs against their validate tags.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"award-review/internal/apperrors"
	"award-review/internal/hierarchy"
	"award-review/internal/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report fields by their JSON names.
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("app_type", func(fl validator.FieldLevel) bool {
			_, err := models.ParseApplicationType(fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("chain_role", func(fl validator.FieldLevel) bool {
			r := hierarchy.Parse(fl.Field().String())
			return r.InChain() || r == hierarchy.RoleHeadquarter || r == hierarchy.RoleCW2
		})
	})
	return validate
}

// ValidateStruct validates a struct based on its validate tags. The first failing
// field is returned as an apperrors.ValidationError.
func ValidateStruct(s interface{}) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	return apperrors.NewValidationError(fieldPath(fe), message(fe))
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "app_type":
		return "must be citation or appreciation"
	case "chain_role":
		return "is not a known role"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}

// SanitizeString trims whitespace and drops NUL bytes.
func SanitizeString(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}
