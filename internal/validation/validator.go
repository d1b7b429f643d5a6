// Package validation wraps a single go-playground/validator instance and
// converts its failures into apierr.ValidationError values listing every
// offending field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/andrebq/taskbox/internal/apierr"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	minPasswordLen = 8
	maxPasswordLen = 64
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		validate.RegisterValidation("password", strongPassword)
		validate.RegisterValidation("notblank", validators.NotBlank)
	})
	return validate
}

// Struct validates s and returns nil or an apierr.ValidationError.
func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := apierr.ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, apierr.FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: message(fe),
		})
	}
	return out
}

// StrongPassword reports whether p satisfies the password policy.
func StrongPassword(p string) bool {
	if len(p) < minPasswordLen || len(p) > maxPasswordLen {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return lower && upper && digit && special
}

func strongPassword(fl validator.FieldLevel) bool {
	return StrongPassword(fl.Field().String())
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%v is required", fe.Field())
	case "notblank":
		return fmt.Sprintf("%v must not be blank", fe.Field())
	case "email":
		return fmt.Sprintf("%v must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%v must be at least %v long", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%v must be at most %v long", fe.Field(), fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%v is out of range (%v %v)", fe.Field(), fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%v must be one of [%v]", fe.Field(), fe.Param())
	case "password":
		return fmt.Sprintf("%v must have %v to %v characters with upper and lower case letters, a digit and a symbol", fe.Field(), minPasswordLen, maxPasswordLen)
	case "dive", "required_without_all":
		return fmt.Sprintf("%v is invalid", fe.Field())
	default:
		return fmt.Sprintf("%v failed on %v", fe.Field(), fe.Tag())
	}
}
