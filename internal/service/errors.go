package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/vendor-exchange/internal/repository"
)

// Domain errors. Callers distinguish them with errors.Is; the message after
// the sentinel carries the detail.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state")
	ErrForbidden    = errors.New("forbidden")
	// ErrConflict means a concurrent write changed the entity between the
	// read and the conditional write. Retrying the call re-validates it.
	ErrConflict = errors.New("concurrent modification")
	// ErrUnavailable wraps storage failures. It is the only retryable kind.
	ErrUnavailable = errors.New("storage unavailable")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report payload field names as they appear on the wire.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validatePayload checks req's validate tags and folds violations into a
// single ErrValidation.
func validatePayload(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " is not a valid email address"
	case "url":
		return fe.Field() + " is not a valid URL"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

// storageErr translates a repository error for the given entity.
func storageErr(entity, id string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %s %s", ErrNotFound, entity, id)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: %s %s was modified concurrently", ErrConflict, entity, id)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
