package errmsg

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/llehouerou/crate/internal/catalog"
	"github.com/llehouerou/crate/internal/service"
)

// Kind reports the error kind of err.
func Kind(err error) catalog.ErrorKind {
	var (
		validation *service.ValidationError
		network    *service.NetworkError
		api        *service.APIError
		netErr     net.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return catalog.ErrorValidation
	case errors.As(err, &api), errors.Is(err, service.ErrNotFound):
		return catalog.ErrorAPI
	case errors.As(err, &network), errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded):
		return catalog.ErrorNetwork
	default:
		return catalog.ErrorUnknown
	}
}

// Retryable reports whether retrying the failed call may succeed.
// Network failures always may; API failures only when the server is at fault.
func Retryable(err error) bool {
	switch Kind(err) {
	case catalog.ErrorNetwork:
		return true
	case catalog.ErrorAPI:
		var api *service.APIError
		return errors.As(err, &api) && api.Retryable()
	default:
		return false
	}
}

// Classify turns err into the ErrorState shown for op. It returns nil for a nil error.
func Classify(op Op, err error, at time.Time) *catalog.ErrorState {
	if err == nil {
		return nil
	}
	return &catalog.ErrorState{
		Kind:      Kind(err),
		Message:   Format(op, err),
		Details:   details(err),
		Retryable: Retryable(err),
		Timestamp: at,
	}
}

func details(err error) string {
	var api *service.APIError
	if errors.As(err, &api) && api.Message != "" {
		return api.Message
	}
	return ""
}
