// Package errors provides a lightweight structured error type (PagecraftError)
// for category-based classification across the generation pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a pagecraft error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// External system integration errors
	CategoryLLM     ErrorCategory = "llm"
	CategoryNetwork ErrorCategory = "network"

	// Pipeline and content errors
	CategoryGraph      ErrorCategory = "graph"
	CategoryGeneration ErrorCategory = "generation"
	CategoryBlock      ErrorCategory = "block"
	CategoryPage       ErrorCategory = "page"
	CategoryOutput     ErrorCategory = "output"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// PagecraftError is a structured error with category, retryability, and context
type PagecraftError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for PagecraftError
type ContextFields map[string]any

// Error implements the error interface
func (e *PagecraftError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *PagecraftError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *PagecraftError) WithContext(key string, value any) *PagecraftError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new PagecraftError
func New(category ErrorCategory, severity ErrorSeverity, message string) *PagecraftError {
	return &PagecraftError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new PagecraftError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *PagecraftError {
	return &PagecraftError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable PagecraftError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *PagecraftError {
	return &PagecraftError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if pe, ok := err.(*PagecraftError); ok {
		return pe.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if pe, ok := err.(*PagecraftError); ok {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a PagecraftError
func GetCategory(err error) ErrorCategory {
	if pe, ok := err.(*PagecraftError); ok {
		return pe.Category
	}
	return CategoryInternal
}
