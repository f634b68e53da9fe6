// Package errs maps service errors onto gRPC codes and HTTP statuses for every transport.
package errs

import (
	"errors"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/gateway"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code maps a domain failure to its gRPC code. Anything unrecognised is Internal.
func Code(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrConflict):
		return codes.AlreadyExists
	case errors.Is(err, domain.ErrInvalidState):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrIneligibleCustomer):
		return codes.PermissionDenied
	case errors.Is(err, domain.ErrCapacityExceeded):
		return codes.ResourceExhausted
	case errors.Is(err, domain.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, gateway.ErrUnavailable):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// Status converts a service error into a gRPC status error.
func Status(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	code := Code(err)
	if code == codes.Internal || code == codes.Unavailable {
		return status.Error(code, "internal error")
	}
	return status.Error(code, err.Error())
}

// HTTPStatus is the REST status for a service error.
func HTTPStatus(err error) int {
	return runtime.HTTPStatusFromCode(Code(err))
}
