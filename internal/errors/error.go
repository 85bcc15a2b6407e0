package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryRuntime    Category = "runtime"
	CategoryValidation Category = "validation"
	CategoryProtocol   Category = "protocol"
	CategoryPersist    Category = "persist"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
)

// EffuseError is a structured error with a stable code, a fix
// suggestion, and documentation pointer.
type EffuseError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (runtime, validation, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *EffuseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *EffuseError) Unwrap() error {
	return e.Wrapped
}

// WithDetail adds a detailed explanation to the error.
func (e *EffuseError) WithDetail(format string, args ...any) *EffuseError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *EffuseError) WithSuggestion(s string) *EffuseError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *EffuseError) Wrap(err error) *EffuseError {
	e.Wrapped = err
	return e
}

// New creates an EffuseError from a registered error code.
func New(code string) *EffuseError {
	template, ok := registry[code]
	if !ok {
		return &EffuseError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &EffuseError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new EffuseError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *EffuseError {
	return &EffuseError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error under a registered code. A nil err
// returns nil; an EffuseError passes through unchanged.
func FromError(err error, code string) *EffuseError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EffuseError); ok {
		return ee
	}
	return New(code).Wrap(err)
}

// IsCode reports whether err (or anything it wraps) carries the given
// error code.
func IsCode(err error, code string) bool {
	for err != nil {
		if ee, ok := err.(*EffuseError); ok && ee.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
