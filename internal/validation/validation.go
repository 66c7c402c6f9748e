package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"hackspeech/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields under their JSON names so clients can map them back
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks the validate tags of s and returns models.ValidationErrors
// describing every failing field.
func ValidateStruct(s interface{}) error {
	if s == nil {
		return nil
	}

	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validator: expected a struct, got %T", s)
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation failed: %w", err)
	}

	out := make(models.ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe), fe.Tag(), nil)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "champ requis"
	case "email":
		return "adresse email invalide"
	case "min":
		return fmt.Sprintf("au moins %s caractères", fe.Param())
	case "max":
		return fmt.Sprintf("au plus %s caractères", fe.Param())
	case "oneof":
		return fmt.Sprintf("valeur attendue parmi : %s", fe.Param())
	default:
		return fmt.Sprintf("contrainte %q non respectée", fe.Tag())
	}
}
