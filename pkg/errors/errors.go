package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeConfiguration indicates missing or malformed configuration; fatal at startup
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"

	// ErrorTypeIngestion indicates a single malformed incident record; skip and log
	ErrorTypeIngestion ErrorType = "INGESTION"

	// ErrorTypeDetection indicates the PII engine could not classify a span
	ErrorTypeDetection ErrorType = "DETECTION"

	// ErrorTypeRetrieval indicates the search index was unreachable or timed out
	ErrorTypeRetrieval ErrorType = "RETRIEVAL"

	// ErrorTypeGeneration indicates a failed or rate-limited language model call
	ErrorTypeGeneration ErrorType = "GENERATION"

	// ErrorTypeFormatting indicates answer post-processing failed
	ErrorTypeFormatting ErrorType = "FORMATTING"

	// ErrorTypeValidation indicates a validation error
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// NewConfigurationError creates a new configuration error
func NewConfigurationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewIngestionError creates a new ingestion error
func NewIngestionError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeIngestion,
		Message: message,
		Err:     err,
	}
}

// NewDetectionError creates a new detection error
func NewDetectionError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeDetection,
		Message: message,
		Err:     err,
	}
}

// NewRetrievalError creates a new retrieval error
func NewRetrievalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeRetrieval,
		Message: message,
		Err:     err,
	}
}

// NewGenerationError creates a new generation error
func NewGenerationError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeGeneration,
		Message: message,
		Err:     err,
	}
}

// NewFormattingError creates a new formatting error
func NewFormattingError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeFormatting,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}
