package service

import (
	"fmt"

	"github.com/phrazzld/scry-dealer/internal/domain"
)

// Error handling principles:
// 1. Validation failures are returned as *domain.ValidationError before any store call
// 2. Store failures are wrapped in a ServiceError; errors.Is still sees the store sentinel
// 3. "Nothing matched" is never an error; it is an ok == false result or an empty slice
// 4. The API layer maps errors to HTTP status codes with errors.Is/errors.As

// ServiceError is a custom error type for service errors.
type ServiceError struct {
	Service   string
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s failed: %s: %v", e.Service, e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s service %s failed: %s", e.Service, e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError.
func NewServiceError(service, operation, message string, err error) *ServiceError {
	return &ServiceError{
		Service:   service,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

func nilDependency(field string) error {
	return domain.NewValidationError(field, "cannot be nil", domain.ErrValidation)
}
