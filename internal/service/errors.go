package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/linguist-api/internal/domain"
)

// ServiceError wraps a failure with the service and operation it happened
// in. It unwraps to the cause, so callers still match the domain sentinels.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
	}
	return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a ServiceError.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{Service: service, Op: op, Err: err}
}

// Wrap returns err unchanged when it is nil or an invalid-argument error and
// wraps it in a ServiceError otherwise.
func Wrap(service, op string, err error) error {
	if err == nil || errors.Is(err, domain.ErrInvalidArgument) {
		return err
	}
	return NewServiceError(service, op, err)
}
