// Package validation wraps go-playground/validator with the rules this API
// needs and turns failures into field-level apperr validation errors.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/store-rating/internal/apperr"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their json names so messages match the request body.
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordOK(fl.Field().String())
	})
	_ = val.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "SYSTEM_ADMIN", "STORE_OWNER", "NORMAL_USER":
			return true
		}
		return false
	})
	return val
}

// PasswordOK checks the password policy: 8 to 16 characters with at least
// one uppercase letter and one character that is neither letter nor digit.
func PasswordOK(s string) bool {
	n := len([]rune(s))
	if n < 8 || n > 16 {
		return false
	}
	var upper, special bool
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z', unicode.IsDigit(r):
		default:
			special = true
		}
	}
	return upper && special
}

// Struct validates s and returns an *apperr.Error with one message per
// failing field, or nil.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = message(fe)
		}
	}
	return apperr.Validation("validation failed", fields)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			if fe.Param() == "1" {
				return "must not be empty"
			}
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "password":
		return "must be 8-16 characters with an uppercase letter and a special character"
	case "role":
		return "must be one of SYSTEM_ADMIN, STORE_OWNER, NORMAL_USER"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "is invalid"
}
