// Package errors provides the error taxonomy for the vhostctl lifecycle
// orchestrator.
//
// The errors package defines one structured error type, HostError, whose Code
// classifies a failure for rollback decisions, HTTP status mapping and CLI exit
// codes. Messages are human-readable and never contain filesystem paths or
// wrapped causes; the cause is kept in Err for logs.
//
// # Error Codes
//
//   - VALIDATION: bad input shape (domain syntax, missing owner)
//   - CONFLICT: duplicate domain or port at the persistence boundary
//   - NOT_FOUND: no host matched a filter
//   - DIRECTORY_NOT_CREATED: the document root could not be created
//   - CONFIG_NOT_CREATED: the proxy configuration could not be created
//   - COMMAND_FAILED: a webserver control command failed or timed out
//   - CONFIG: the application configuration is invalid
//   - INTERNAL: everything else
//
// # Error Checking
//
// Sentinels compare by code, so errors.Is works against any HostError:
//
//	if errors.Is(err, errors.ErrHostNotFound) {
//	    // 404
//	}
//
// The directory and config managers additionally wrap plain sentinels so the
// exact branch can be told apart:
//
//	errors.Is(err, errors.ErrDirectoryNotCreated)   // true
//	errors.Is(err, errors.ErrDirectoryAlreadyExists) // true for the "exists" branch
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode categorizes errors for programmatic handling.
type ErrorCode string

// Error codes for different error categories.
const (
	ErrCodeValidation          ErrorCode = "VALIDATION"            // Input validation failed
	ErrCodeConflict            ErrorCode = "CONFLICT"              // Domain or port already taken
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"             // Host not found
	ErrCodeDirectoryNotCreated ErrorCode = "DIRECTORY_NOT_CREATED" // Document root not created
	ErrCodeConfigNotCreated    ErrorCode = "CONFIG_NOT_CREATED"    // Proxy config not created
	ErrCodeCommandFailed       ErrorCode = "COMMAND_FAILED"        // Webserver command failed
	ErrCodeConfig              ErrorCode = "CONFIG"                // Application configuration error
	ErrCodeInternal            ErrorCode = "INTERNAL"              // Internal/unexpected error
)

// HostError represents a structured error with context about the operation.
type HostError struct {
	Code    ErrorCode // Error category
	Message string    // Human-readable message, safe to show to API clients
	Domain  string    // Domain name (if applicable)
	Err     error     // Underlying error (if any)
}

// Error implements the error interface.
func (e *HostError) Error() string {
	if e.Domain != "" && e.Err != nil {
		return fmt.Sprintf("host %s: %s: %v", e.Domain, e.Message, e.Err)
	}
	if e.Domain != "" {
		return fmt.Sprintf("host %s: %s", e.Domain, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error chain traversal.
func (e *HostError) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error.
// Comparison is based on error code.
func (e *HostError) Is(target error) bool {
	t, ok := target.(*HostError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinel errors for the error taxonomy.
// Use these with errors.Is() for error checking.
var (
	// ErrValidation indicates the request was malformed.
	ErrValidation = &HostError{Code: ErrCodeValidation, Message: "validation failed"}

	// ErrConflict indicates a host with the same domain or port already exists.
	ErrConflict = &HostError{Code: ErrCodeConflict, Message: "Virtual host already exists."}

	// ErrHostNotFound indicates no host matched the filter.
	ErrHostNotFound = &HostError{Code: ErrCodeNotFound, Message: "Virtual host is not found."}

	// ErrDirectoryNotCreated indicates the host document root could not be created.
	ErrDirectoryNotCreated = &HostError{Code: ErrCodeDirectoryNotCreated, Message: "Host directory could not be created."}

	// ErrConfigNotCreated indicates the host proxy configuration could not be created.
	ErrConfigNotCreated = &HostError{Code: ErrCodeConfigNotCreated, Message: "Host configuration file could not be created."}

	// ErrCommandFailed indicates a webserver control command failed.
	ErrCommandFailed = &HostError{Code: ErrCodeCommandFailed, Message: "Command has failed."}

	// ErrConfigInvalid indicates the application configuration is invalid.
	ErrConfigInvalid = &HostError{Code: ErrCodeConfig, Message: "invalid configuration"}

	// ErrInternal indicates an unexpected failure.
	ErrInternal = &HostError{Code: ErrCodeInternal, Message: "Internal server error."}
)

// Branch sentinels wrapped inside DIRECTORY_NOT_CREATED / CONFIG_NOT_CREATED errors.
var (
	ErrDirectoryNotWritable   = errors.New("content root is not writable")
	ErrDirectoryAlreadyExists = errors.New("host directory already exists")
	ErrConfigAlreadyExists    = errors.New("host configuration file already exists")

	// ErrReloadPending marks a create whose artifacts exist but whose reload failed.
	ErrReloadPending = errors.New("host created but webserver reload failed")
)

// NotFound creates an error for a host that doesn't exist.
func NotFound(domain string) error {
	return &HostError{
		Code:    ErrCodeNotFound,
		Message: ErrHostNotFound.Message,
		Domain:  domain,
	}
}

// Conflict creates an error for a domain or port that is already taken.
func Conflict(domain string, err error) error {
	return &HostError{
		Code:    ErrCodeConflict,
		Message: ErrConflict.Message,
		Domain:  domain,
		Err:     err,
	}
}

// Validation creates a validation error with a custom message.
func Validation(msg string) error {
	return &HostError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// DirectoryNotCreated wraps a document root creation failure.
func DirectoryNotCreated(domain string, err error) error {
	return &HostError{
		Code:    ErrCodeDirectoryNotCreated,
		Message: ErrDirectoryNotCreated.Message,
		Domain:  domain,
		Err:     err,
	}
}

// ConfigNotCreated wraps a proxy configuration creation failure.
func ConfigNotCreated(domain string, err error) error {
	return &HostError{
		Code:    ErrCodeConfigNotCreated,
		Message: ErrConfigNotCreated.Message,
		Domain:  domain,
		Err:     err,
	}
}

// CommandFailed creates an error carrying the captured command output.
// An empty detail falls back to a generic message.
func CommandFailed(detail string, err error) error {
	if detail == "" {
		detail = ErrCommandFailed.Message
	}
	return &HostError{
		Code:    ErrCodeCommandFailed,
		Message: detail,
		Err:     err,
	}
}

// Internal wraps an unexpected failure.
func Internal(err error) error {
	return &HostError{
		Code:    ErrCodeInternal,
		Message: ErrInternal.Message,
		Err:     err,
	}
}

// Wrap creates an error with the specified code, message, and underlying error.
func Wrap(code ErrorCode, msg string, err error) error {
	return &HostError{
		Code:    code,
		Message: msg,
		Err:     err,
	}
}

// CodeOf returns the code of the first HostError in err's chain,
// or ErrCodeInternal if there is none.
func CodeOf(err error) ErrorCode {
	var he *HostError
	if errors.As(err, &he) {
		return he.Code
	}
	return ErrCodeInternal
}

// PublicMessage returns the message that may be shown to API clients.
func PublicMessage(err error) string {
	var he *HostError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return ErrInternal.Message
}

// HTTPStatus maps an error to a response status classification.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Exit codes for the vhostctl CLI
const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitNotFound      = 2
	ExitValidation    = 3
	ExitConflict      = 4
	ExitCommandFailed = 5
	ExitConfigError   = 6
)

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch CodeOf(err) {
	case ErrCodeNotFound:
		return ExitNotFound
	case ErrCodeValidation:
		return ExitValidation
	case ErrCodeConflict:
		return ExitConflict
	case ErrCodeCommandFailed:
		return ExitCommandFailed
	case ErrCodeConfig:
		return ExitConfigError
	default:
		return ExitGeneralError
	}
}

// Is reports whether any error in err's chain matches target.
// This is a re-export of errors.Is for convenience.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
// This is a re-export of errors.As for convenience.
var As = errors.As

// New is a re-export of errors.New for convenience.
var New = errors.New
