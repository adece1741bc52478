package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across the service. Validation-class codes are detected
// before any write; storage-class codes wrap the underlying cause.
const (
	CodeEmptyMessage      = "EMPTY_MESSAGE"
	CodeRosterNotFound    = "ROSTER_NOT_FOUND"
	CodeWriteFailed       = "WRITE_FAILED"
	CodeReadFailed        = "READ_FAILED"
	CodeSubscriptionError = "SUBSCRIPTION_ERROR"
	CodeValidationError   = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternalError     = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
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

// CodeOf extracts the application error code, or INTERNAL_ERROR for
// unclassified errors.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternalError
}

// Predefined error constructors

func NewEmptyMessageError() *AppError {
	return &AppError{
		Code:    CodeEmptyMessage,
		Message: "Message needs content or an attachment",
	}
}

func NewRosterNotFoundError(audience string) *AppError {
	return &AppError{
		Code:    CodeRosterNotFound,
		Message: fmt.Sprintf("No recipients found for %s", audience),
	}
}

func NewWriteFailedError(err error) *AppError {
	return &AppError{
		Code:    CodeWriteFailed,
		Message: "Storage write failed",
		Err:     err,
	}
}

func NewReadFailedError(err error) *AppError {
	return &AppError{
		Code:    CodeReadFailed,
		Message: "Storage read failed",
		Err:     err,
	}
}

func NewSubscriptionError(err error) *AppError {
	return &AppError{
		Code:    CodeSubscriptionError,
		Message: "Change feed failed",
		Err:     err,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidationError,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: "Internal server error",
		Err:     err,
	}
}

// StatusForCode maps application error codes to HTTP status codes at the API edge.
func StatusForCode(code string) int {
	switch code {
	case CodeEmptyMessage, CodeValidationError:
		return fiber.StatusBadRequest
	case CodeRosterNotFound, CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnauthorized:
		return fiber.StatusUnauthorized
	case CodeForbidden:
		return fiber.StatusForbidden
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
