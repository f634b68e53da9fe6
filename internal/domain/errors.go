package domain

import "errors"

// Failure kinds surfaced to callers. Operations wrap them with the failing precondition,
// callers match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidState       = errors.New("invalid state")
	ErrIneligibleCustomer = errors.New("ineligible customer")
	ErrCapacityExceeded   = errors.New("capacity exceeded")
	ErrValidation         = errors.New("validation error")
)

// Kind returns a stable machine readable name for a failure, empty for unknown errors.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrInvalidState):
		return "INVALID_STATE"
	case errors.Is(err, ErrIneligibleCustomer):
		return "INELIGIBLE_CUSTOMER"
	case errors.Is(err, ErrCapacityExceeded):
		return "CAPACITY_EXCEEDED"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	default:
		return ""
	}
}
