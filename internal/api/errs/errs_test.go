package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/gateway"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorMapping(t *testing.T) {
	testCases := []struct {
		err      error
		code     codes.Code
		httpCode int
	}{
		{domain.ErrNotFound, codes.NotFound, http.StatusNotFound},
		{domain.ErrConflict, codes.AlreadyExists, http.StatusConflict},
		{domain.ErrInvalidState, codes.FailedPrecondition, http.StatusBadRequest},
		{domain.ErrIneligibleCustomer, codes.PermissionDenied, http.StatusForbidden},
		{domain.ErrCapacityExceeded, codes.ResourceExhausted, http.StatusTooManyRequests},
		{domain.ErrValidation, codes.InvalidArgument, http.StatusBadRequest},
		{gateway.ErrUnavailable, codes.Unavailable, http.StatusServiceUnavailable},
		{errors.New("boom"), codes.Internal, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("%w: detail", tc.err)
			assert.Equal(t, tc.code, Code(wrapped))
			assert.Equal(t, tc.httpCode, HTTPStatus(wrapped))
			assert.Equal(t, tc.code, status.Code(Status(wrapped)))
		})
	}
}

func TestStatus_HidesInternalDetail(t *testing.T) {
	st, ok := status.FromError(Status(errors.New("pq: password authentication failed")))
	assert.True(t, ok)
	assert.Equal(t, "internal error", st.Message())
	assert.NoError(t, Status(nil))
}
