package domain

import (
	"errors"
	"fmt"
)

// Error codes used across the application
const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeModuleRead        = "MODULE_READ_ERROR"
	ErrCodeAnalysisError     = "ANALYSIS_ERROR"
	ErrCodeConfigError       = "CONFIG_ERROR"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"
	ErrCodeRecordStore       = "RECORD_STORE_ERROR"
	ErrCodeOutputError       = "OUTPUT_ERROR"
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
)

// DomainError represents a domain-specific error with a stable code
type DomainError struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface
func (e DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains
func (e DomainError) Unwrap() error {
	return e.Cause
}

// NewDomainError creates a new domain error with the given code
func NewDomainError(code, message string, cause error) error {
	return DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewInvalidInputError creates an error for invalid user input
func NewInvalidInputError(message string, cause error) error {
	return NewDomainError(ErrCodeInvalidInput, message, cause)
}

// NewFileNotFoundError creates an error for a missing file or path
func NewFileNotFoundError(path string, cause error) error {
	return NewDomainError(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path), cause)
}

// NewModuleReadError creates an error for an unreadable module.
// Scans treat this as per-module and recoverable: the module is skipped.
func NewModuleReadError(path string, cause error) error {
	return NewDomainError(ErrCodeModuleRead, fmt.Sprintf("failed to read module: %s", path), cause)
}

// NewAnalysisError creates an error for a failed analysis stage
func NewAnalysisError(message string, cause error) error {
	return NewDomainError(ErrCodeAnalysisError, message, cause)
}

// NewConfigError creates an error for configuration loading problems
func NewConfigError(message string, cause error) error {
	return NewDomainError(ErrCodeConfigError, message, cause)
}

// NewInvalidConfigError creates an error for a rejected configuration value.
// The caller keeps its previous configuration when this is returned.
func NewInvalidConfigError(message string) error {
	return NewDomainError(ErrCodeInvalidConfig, message, nil)
}

// NewRecordStoreError creates a recoverable error for fix-record persistence
// failures. In-memory tracking stays valid when this is returned.
func NewRecordStoreError(message string, cause error) error {
	return NewDomainError(ErrCodeRecordStore, message, cause)
}

// NewOutputError creates an error for output writing failures
func NewOutputError(message string, cause error) error {
	return NewDomainError(ErrCodeOutputError, message, cause)
}

// NewUnsupportedFormatError creates an error for an unknown output format
func NewUnsupportedFormatError(format string) error {
	return NewDomainError(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format: %s", format), nil)
}

// NewValidationError creates an error for request validation failures
func NewValidationError(message string) error {
	return NewDomainError(ErrCodeInvalidInput, message, nil)
}

// IsCode reports whether err is (or wraps) a DomainError with the given code
func IsCode(err error, code string) bool {
	var de DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
