package component

import (
	"errors"
	"fmt"
)

// NamedRegistrationNotFoundError is returned by a NameBasedRegistry when no
// registration exists under the requested name.
type NamedRegistrationNotFoundError struct {
	Name string
}

func (e NamedRegistrationNotFoundError) Error() string {
	return fmt.Sprintf("registration with name %s not found", e.Name)
}

// RegistrationNotFoundError is returned by a PredicateBasedRegistry when no
// registration's predicate matched.
type RegistrationNotFoundError struct{}

func (e RegistrationNotFoundError) Error() string {
	return "no matching registration found"
}

// IsNotFoundError returns true if err is, or wraps, either of this package's
// not-found errors.
func IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	return errors.As(err, &NamedRegistrationNotFoundError{}) ||
		errors.As(err, &RegistrationNotFoundError{})
}
