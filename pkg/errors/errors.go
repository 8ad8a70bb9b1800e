package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors in the system
type ErrorType string

const (
	// ErrorTypeEmptyInput indicates blank or whitespace-only symptom input
	ErrorTypeEmptyInput ErrorType = "EMPTY_INPUT"

	// ErrorTypeUpstream indicates a registry or capacity feed failure
	ErrorTypeUpstream ErrorType = "UPSTREAM"

	// ErrorTypeTranscription indicates a voice-to-text failure
	ErrorTypeTranscription ErrorType = "TRANSCRIPTION"

	// ErrorTypeNoEligibleHospital indicates ranking found zero qualifying candidates
	ErrorTypeNoEligibleHospital ErrorType = "NO_ELIGIBLE_HOSPITAL"

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

// NewEmptyInputError creates a new empty input error
func NewEmptyInputError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeEmptyInput,
		Message: message,
	}
}

// NewUpstreamError creates a new upstream feed error
func NewUpstreamError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeUpstream,
		Message: message,
		Err:     err,
	}
}

// NewTranscriptionError creates a new transcription error
func NewTranscriptionError(message string, err error) *AppError {
	return &AppError{
		Type:    ErrorTypeTranscription,
		Message: message,
		Err:     err,
	}
}

// NewNoEligibleHospitalError creates a new no-eligible-hospital error
func NewNoEligibleHospitalError(message string) *AppError {
	return &AppError{
		Type:    ErrorTypeNoEligibleHospital,
		Message: message,
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

// IsType reports whether err is an AppError of the given type
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsEmptyInput reports whether err is an empty input error
func IsEmptyInput(err error) bool { return IsType(err, ErrorTypeEmptyInput) }

// IsUpstream reports whether err is an upstream feed error
func IsUpstream(err error) bool { return IsType(err, ErrorTypeUpstream) }

// IsTranscription reports whether err is a transcription error
func IsTranscription(err error) bool { return IsType(err, ErrorTypeTranscription) }

// IsNoEligibleHospital reports whether err is a no-eligible-hospital error
func IsNoEligibleHospital(err error) bool { return IsType(err, ErrorTypeNoEligibleHospital) }
