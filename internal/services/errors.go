package services

import (
	"errors"

	"cargo-logistics-service/internal/domain"
)

func isNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

func isConflict(err error) bool { return errors.Is(err, domain.ErrConflict) }

// fieldErrors returns the field errors carried by err, or an empty set to
// add more to.
func fieldErrors(err error) *domain.ValidationError {
	var v *domain.ValidationError
	if errors.As(err, &v) {
		return v
	}
	return &domain.ValidationError{}
}
