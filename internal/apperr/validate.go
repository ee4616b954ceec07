package apperr

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of v and returns an Invalid error whose
// details map each failing field to the rule it broke.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Wrap(KindInvalid, err, "invalid input")
	}
	fields := make(map[string]any, len(verrs))
	for _, ve := range verrs {
		fields[ve.Namespace()] = ve.Tag()
	}
	return Invalid("invalid input").WithDetails(fields)
}
