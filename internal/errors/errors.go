// Package errors provides centralized error handling with category metadata
// used to route errors at the API and orchestration boundaries.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// ErrorCategory represents the type of error for better categorization
type ErrorCategory string

const (
	CategoryValidation    ErrorCategory = "validation"
	CategoryDatabase      ErrorCategory = "database"
	CategoryBroadcast     ErrorCategory = "broadcast"
	CategoryNotFound      ErrorCategory = "not-found"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryImage         ErrorCategory = "image-processing"
	CategoryNutrition     ErrorCategory = "nutrition-lookup"
	CategoryGeneric       ErrorCategory = "generic"
)

// ComponentUnknown is used when the component has not been set.
const ComponentUnknown = "unknown"

// EnhancedError wraps an error with additional context and metadata
type EnhancedError struct {
	Err       error          // Original error
	Component string         // Component where the error occurred
	Category  ErrorCategory  // Error category for better grouping
	Context   map[string]any // Additional context data
	Timestamp time.Time      // When the error occurred
}

// Error implements the error interface
func (ee *EnhancedError) Error() string {
	return ee.Err.Error()
}

// Unwrap implements the error unwrapping interface
func (ee *EnhancedError) Unwrap() error {
	return ee.Err
}

// Is matches two enhanced errors by category, otherwise defers to the
// wrapped error chain.
func (ee *EnhancedError) Is(target error) bool {
	if ee2, ok := target.(*EnhancedError); ok {
		return ee.Category == ee2.Category
	}
	return stderrors.Is(ee.Err, target)
}

// GetCategory returns the error category as a string
func (ee *EnhancedError) GetCategory() string {
	return string(ee.Category)
}

// GetContext returns a copy of the context map
func (ee *EnhancedError) GetContext() map[string]any {
	if ee.Context == nil {
		return nil
	}
	ctx := make(map[string]any, len(ee.Context))
	maps.Copy(ctx, ee.Context)
	return ctx
}

// ErrorBuilder provides a fluent interface for building enhanced errors
type ErrorBuilder struct {
	err       error
	component string
	category  ErrorCategory
	context   map[string]any
}

// New creates a new error builder wrapping an existing error
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{
		err:      err,
		category: CategoryGeneric,
	}
}

// Newf creates a new error builder from a formatted message
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

// Component sets the component where the error occurred
func (eb *ErrorBuilder) Component(component string) *ErrorBuilder {
	eb.component = component
	return eb
}

// Category sets the error category
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a key-value pair to the error context
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the final enhanced error
func (eb *ErrorBuilder) Build() *EnhancedError {
	component := eb.component
	if component == "" {
		component = ComponentUnknown
	}
	return &EnhancedError{
		Err:       eb.err,
		Component: component,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}
}

// ValidationError creates a validation error from a message
func ValidationError(format string, args ...any) *EnhancedError {
	return Newf(format, args...).Category(CategoryValidation).Build()
}

// DatabaseError wraps a persistence failure
func DatabaseError(err error, operation string) *EnhancedError {
	return New(err).Category(CategoryDatabase).Context("operation", operation).Build()
}

// NotFound reports whether err carries the not-found category.
func NotFound(err error) bool {
	var ee *EnhancedError
	if stderrors.As(err, &ee) {
		return ee.Category == CategoryNotFound
	}
	return false
}

// IsValidation reports whether err carries the validation category.
func IsValidation(err error) bool {
	var ee *EnhancedError
	if stderrors.As(err, &ee) {
		return ee.Category == CategoryValidation
	}
	return false
}

// IsDatabase reports whether err carries the database category.
func IsDatabase(err error) bool {
	var ee *EnhancedError
	if stderrors.As(err, &ee) {
		return ee.Category == CategoryDatabase
	}
	return false
}

// Standard library compatibility functions

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err
func Unwrap(err error) error {
	return stderrors.Unwrap(err)
}

// Join returns an error that wraps the given errors
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
