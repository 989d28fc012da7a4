// Package errors defines the structured error types used across the inliner.
//
// Errors carry a category, a stable code, and a recoverability flag. The
// engine never lets a recoverable failure escape as a fatal error: an
// unresolvable asset leaves its tag untouched, a failed sub-build leaves its
// marker in place or falls back to the raw file, and a missing backend
// capability skips the whole inlining step for that session.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeResolve    ErrorType = "resolve"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeCapability ErrorType = "capability"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeInternal   ErrorType = "internal"
)

// InlineError is a structured error with category, code, and context.
type InlineError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Path        string
	Recoverable bool
}

// Error implements the error interface.
func (e *InlineError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Path != "" {
		parts = append(parts, e.Path)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *InlineError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison by category and code.
func (e *InlineError) Is(target error) bool {
	var t *InlineError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *InlineError) WithContext(key string, value interface{}) *InlineError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithPath attaches the asset or document path the error refers to.
func (e *InlineError) WithPath(path string) *InlineError {
	e.Path = path

	return e
}

// Common error codes.
const (
	ErrCodeUnresolvableAsset = "ERR_UNRESOLVABLE_ASSET"
	ErrCodeBuildFailed       = "ERR_BUILD_FAILED"
	ErrCodeMissingCapability = "ERR_MISSING_CAPABILITY"
	ErrCodeArtifactNotFound  = "ERR_ARTIFACT_NOT_FOUND"
	ErrCodeInvalidPath       = "ERR_INVALID_PATH"
	ErrCodeConfigInvalid     = "ERR_CONFIG_INVALID"
	ErrCodeFileNotFound      = "ERR_FILE_NOT_FOUND"
	ErrCodeInternal          = "ERR_INTERNAL"
)

// NewResolveError creates an asset resolution error. Always recoverable: the
// tag is left verbatim and processing continues.
func NewResolveError(code, message string) *InlineError {
	return &InlineError{
		Type:        ErrorTypeResolve,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewBuildError creates a sub-build failure error. Recoverable per entry.
func NewBuildError(code, message string, cause error) *InlineError {
	return &InlineError{
		Type:        ErrorTypeBuild,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewCapabilityError creates a missing-capability error. The session skips
// inlining entirely; individual references are not reported.
func NewCapabilityError(code, message string) *InlineError {
	return &InlineError{
		Type:        ErrorTypeCapability,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *InlineError {
	return &InlineError{
		Type:        ErrorTypeConfig,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// NewIOError creates an I/O error.
func NewIOError(code, message string, cause error) *InlineError {
	return &InlineError{
		Type:        ErrorTypeIO,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *InlineError {
	return &InlineError{
		Type:        ErrorTypeInternal,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: false,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var ie *InlineError
	if errors.As(err, &ie) {
		return ie.Recoverable
	}

	return false
}

// IsBuildError checks if an error is a sub-build failure.
func IsBuildError(err error) bool {
	var ie *InlineError
	if errors.As(err, &ie) {
		return ie.Type == ErrorTypeBuild
	}

	return false
}

// Helper constructors for the common conditions.

// ErrUnresolvableAsset reports a reference the resolver returned nothing for.
func ErrUnresolvableAsset(path string) *InlineError {
	return NewResolveError(ErrCodeUnresolvableAsset, "could not resolve inline asset").WithPath(path)
}

// ErrBuildFailed reports a failed nested build for one entry.
func ErrBuildFailed(path string, cause error) *InlineError {
	return NewBuildError(ErrCodeBuildFailed, "nested build failed", cause).WithPath(path)
}

// ErrMissingCapability reports a backend without any usable build primitive.
func ErrMissingCapability(backend string) *InlineError {
	return NewCapabilityError(ErrCodeMissingCapability, "backend has no primitive for inlining: "+backend)
}

// ErrArtifactNotFound reports a handle that no longer maps to an artifact.
func ErrArtifactNotFound(handle string) *InlineError {
	return NewBuildError(ErrCodeArtifactNotFound, "no artifact for handle: "+handle, nil)
}

// ErrInvalidPath creates a path validation error.
func ErrInvalidPath(path string) *InlineError {
	return NewConfigError(ErrCodeInvalidPath, "invalid path: "+path)
}
