// Package validation validates request structs with validator/v10 and turns
// failures into domain validation errors keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/tilawahapp/tilawah-server/internal/domain"
	domainerrors "github.com/tilawahapp/tilawah-server/internal/errors"
)

// Validator wraps a configured *validator.Validate.
type Validator struct {
	v *validator.Validate
}

// New returns a validator with the server's custom tags registered:
//
//	chapter   int within 1..114
//	reciter   string naming a catalog reciter
//	trimmin   string whose trimmed rune count is at least the param
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		switch name {
		case "":
			return fld.Name
		case "-":
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("chapter", func(fl validator.FieldLevel) bool {
		return domain.ValidChapter(int(fl.Field().Int()))
	})
	_ = v.RegisterValidation("reciter", func(fl validator.FieldLevel) bool {
		return domain.KnownReciter(fl.Field().String())
	})
	_ = v.RegisterValidation("trimmin", func(fl validator.FieldLevel) bool {
		var n int
		if _, err := fmt.Sscan(fl.Param(), &n); err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})

	return &Validator{v: v}
}

// Validate checks s and returns a *domainerrors.Error with per-field details on failure.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = message(fe)
	}
	return domainerrors.ValidationWithDetails("validation failed", details)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min", "trimmin":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return "must not exceed " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	case "chapter":
		return fmt.Sprintf("must be a chapter number between %d and %d", domain.MinChapter, domain.MaxChapter)
	case "reciter":
		return "must be a known reciter id"
	default:
		return "is invalid"
	}
}
