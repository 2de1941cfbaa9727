package dto

import (
	"errors"

	"userauth/internal/domain"

	validation "github.com/go-ozzo/ozzo-validation"
)

type validatable interface {
	Validate() error
}

// Check runs v.Validate and converts field errors into a domain.ValidationError.
func Check(v validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for field, ferr := range fieldErrs {
		if ferr != nil {
			out.Fields[field] = ferr.Error()
		}
	}
	return out
}
