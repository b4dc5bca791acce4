package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller is not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrConflict indicates that the resource is not in a state that permits the operation.
var ErrConflict = errors.New("conflict")

// ErrInsufficientFunds indicates that a debit would drive a wallet balance below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrGatewayVerification indicates that the payment gateway could not confirm a
// payment, either because the call failed or because the verified amount did not
// match the requested amount.
var ErrGatewayVerification = errors.New("gateway verification failed")

// ErrWalletFrozen indicates that the wallet is not in the active state.
var ErrWalletFrozen = errors.New("wallet is frozen")

// ErrInternal indicates an unexpected internal failure.
var ErrInternal = errors.New("internal error")

// AppError wraps a lower-level error with an HTTP-ish status code and a message
// describing the failed operation. Repositories return these for infrastructure
// failures so handlers don't have to guess at a status.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError creates an AppError that also matches ErrNotFound via errors.Is.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
