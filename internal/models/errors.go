package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeMissingFields   = "MISSING_FIELDS"
	CodeInvalidContent  = "INVALID_CONTENT"
	CodeValidation      = "VALIDATION_ERROR"
	CodeDuplicate       = "DUPLICATE"
	CodeUnchanged       = "UNCHANGED"
	CodeAlreadyReacted  = "ALREADY_REACTED"
	CodeNotReacted      = "NOT_REACTED"
	CodeNotFound        = "NOT_FOUND"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_ERROR"
)

// genericFailureMessage is the only text a caller ever sees for store failures.
const genericFailureMessage = "Operation failed"

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
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

// Is matches any AppError with the same code, so errors.Is(err, ErrNotReacted) works.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound       = &AppError{Code: CodeNotFound}
	ErrUnauthorized   = &AppError{Code: CodeUnauthorized}
	ErrForbidden      = &AppError{Code: CodeForbidden}
	ErrDuplicate      = &AppError{Code: CodeDuplicate}
	ErrAlreadyReacted = &AppError{Code: CodeAlreadyReacted}
	ErrNotReacted     = &AppError{Code: CodeNotReacted}
	ErrUnchanged      = &AppError{Code: CodeUnchanged}
	ErrMissingFields  = &AppError{Code: CodeMissingFields}
	ErrInvalidContent = &AppError{Code: CodeInvalidContent}
	ErrConflict       = &AppError{Code: CodeConflict}
	ErrInternal       = &AppError{Code: CodeInternal}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewNotFoundMessage(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewMissingFieldsError() *AppError {
	return &AppError{Code: CodeMissingFields, Message: "Missing Fields"}
}

func NewInvalidContentError(reason string) *AppError {
	return &AppError{Code: CodeInvalidContent, Message: reason}
}

func NewDuplicateError(message string) *AppError {
	return &AppError{Code: CodeDuplicate, Message: message}
}

func NewUnchangedError() *AppError {
	return &AppError{Code: CodeUnchanged, Message: "Unchanged"}
}

func NewAlreadyReactedError(polarity Polarity) *AppError {
	if polarity == PolarityDislike {
		return &AppError{Code: CodeAlreadyReacted, Message: "Already Disliked"}
	}
	return &AppError{Code: CodeAlreadyReacted, Message: "Already Liked"}
}

func NewNotReactedError(polarity Polarity) *AppError {
	if polarity == PolarityDislike {
		return &AppError{Code: CodeNotReacted, Message: "Not Disliked"}
	}
	return &AppError{Code: CodeNotReacted, Message: "Not Liked"}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Code: CodeUnauthenticated, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: genericFailureMessage,
		Err:     err,
	}
}

// StatusFor maps an error to the HTTP status the API answers with.
// Anything that is not an AppError is an unexpected store failure.
func StatusFor(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case CodeMissingFields, CodeInvalidContent, CodeValidation, CodeDuplicate,
		CodeUnchanged, CodeAlreadyReacted, CodeNotReacted:
		return fiber.StatusBadRequest
	case CodeNotFound:
		return fiber.StatusNotFound
	case CodeUnauthenticated:
		return fiber.StatusUnauthorized
	case CodeUnauthorized, CodeForbidden:
		return fiber.StatusForbidden
	case CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// RespondWithError writes the failure envelope. Internal details never leave the process.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := Envelope{Success: false, Message: genericFailureMessage, Code: CodeInternal}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != CodeInternal {
		response.Message = appErr.Message
		response.Code = appErr.Code
	}

	return c.Status(status).JSON(response)
}

// RespondFromError picks the status from the error itself.
func RespondFromError(c *fiber.Ctx, err error) error {
	return RespondWithError(c, StatusFor(err), err)
}

// RespondOK writes {success:true, message, ...payload}.
func RespondOK(c *fiber.Ctx, status int, message string, payload fiber.Map) error {
	body := fiber.Map{
		"success": true,
		"message": message,
	}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}
