package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrInternal      = errors.New("internal error")
	ErrDatabase      = errors.New("database error")
	ErrValidation    = errors.New("validation failed")
	ErrInputContract = errors.New("input contract violation")
	ErrConfiguration = errors.New("configuration error")
)

// ContractError reports a broken page-sequence contract. Page is the
// offending 1-based page index (0 when the violation is not page specific).
type ContractError struct {
	Page    int
	Message string
}

func (e *ContractError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%v: page %d: %s", ErrInputContract, e.Page, e.Message)
	}
	return fmt.Sprintf("%v: %s", ErrInputContract, e.Message)
}

func (e *ContractError) Unwrap() error {
	return ErrInputContract
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NewInputContractError(page int, format string, args ...any) *ContractError {
	return &ContractError{Page: page, Message: fmt.Sprintf(format, args...)}
}

func NewConfigError(field, message string) *AppError {
	return NewAppError("CONFIG_ERROR", fmt.Sprintf("%s: %s", field, message), ErrConfiguration)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

// ToStatus maps application errors onto gRPC status errors.
func ToStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInputContract), errors.Is(err, ErrInvalidInput), errors.Is(err, ErrValidation):
		return InvalidArgumentError(err.Error())
	case errors.Is(err, ErrConfiguration):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrNotFound):
		return NotFoundError(err.Error())
	default:
		return InternalError(err.Error())
	}
}
