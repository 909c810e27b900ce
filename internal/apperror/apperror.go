package apperror

import (
	"errors"
	"fmt"
)

// Error classes. Handlers map these to transport status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// Specific kinds. Each one wraps its class, so errors.Is matches both:
//
//	errors.Is(err, ErrTooLarge)   → true
//	errors.Is(err, ErrValidation) → true
var (
	ErrTooLarge          = fmt.Errorf("too large: %w", ErrValidation)
	ErrUnsupportedFormat = fmt.Errorf("unsupported format: %w", ErrValidation)
	ErrDimensionTooLarge = fmt.Errorf("dimension too large: %w", ErrValidation)

	ErrDuplicateAccount = fmt.Errorf("duplicate account: %w", ErrConflict)
	ErrCreatorNotFound  = fmt.Errorf("creator: %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product: %w", ErrNotFound)
	ErrInvalidToken     = fmt.Errorf("invalid token: %w", ErrUnauthorized)

	// Image pipeline failures that are not the caller's input shape.
	ErrImageProcessing   = errors.New("image processing error")
	ErrProcessingTimeout = errors.New("image processing timeout")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// TooLarge reports an upload above the pipeline's byte ceiling.
func TooLarge(limit int64) *AppError {
	return &AppError{
		Err:     ErrTooLarge,
		Message: fmt.Sprintf("file too large (max %dMB)", limit/(1<<20)),
		Field:   "image",
	}
}

func UnsupportedFormat(format string) *AppError {
	msg := "unsupported image format"
	if format != "" {
		msg = fmt.Sprintf("unsupported image format %q", format)
	}
	return &AppError{
		Err:     ErrUnsupportedFormat,
		Message: msg,
		Field:   "image",
	}
}

func DimensionTooLarge(limit int) *AppError {
	return &AppError{
		Err:     ErrDimensionTooLarge,
		Message: fmt.Sprintf("image dimensions too large (max %dx%d)", limit, limit),
		Field:   "image",
	}
}

// ImageProcessing wraps a decode/encode/persist failure. The cause text is kept
// in the message; the cause itself is not exposed through Unwrap.
func ImageProcessing(cause error) *AppError {
	return &AppError{
		Err:     ErrImageProcessing,
		Message: fmt.Sprintf("image processing error: %v", cause),
	}
}

func ProcessingTimeout() *AppError {
	return &AppError{
		Err:     ErrProcessingTimeout,
		Message: "image processing timeout - file too large or complex",
	}
}

// DuplicateAccount hides the storage engine's constraint error from callers.
func DuplicateAccount() *AppError {
	return &AppError{
		Err:     ErrDuplicateAccount,
		Message: "account with this nickname or mail already exists",
	}
}

func CreatorNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrCreatorNotFound,
		Message: fmt.Sprintf("creator not found with id %s", id),
		Field:   "creator_id",
	}
}

func ProductNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrProductNotFound,
		Message: fmt.Sprintf("product not found with id %s", id),
	}
}

func InvalidToken() *AppError {
	return &AppError{
		Err:     ErrInvalidToken,
		Message: "invalid token",
	}
}

// Unauthorized is used for failed logins. It deliberately carries no detail
// about which part of the credentials was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
