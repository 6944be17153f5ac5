package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Session registry errors
	ErrCodeDuplicateSession ErrorCode = "DUPLICATE_SESSION"
	ErrCodeUnknownSession   ErrorCode = "UNKNOWN_SESSION"

	// Provisioning errors
	ErrCodeAmbiguousSession ErrorCode = "AMBIGUOUS_SESSION"
	ErrCodeProvisionTimeout ErrorCode = "PROVISION_TIMEOUT"
	ErrCodeCanceled         ErrorCode = "CANCELED"

	// Command execution errors
	ErrCodeCommandNotFound ErrorCode = "COMMAND_NOT_FOUND"
	ErrCodeCommandFailed   ErrorCode = "COMMAND_FAILED"

	// Transport errors
	ErrCodePipeFailed     ErrorCode = "PIPE_FAILED"
	ErrCodeConnectionLost ErrorCode = "CONNECTION_LOST"

	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"
)

// OrchestrationError is the single structured error kind raised while
// provisioning, wiring and supervising terminal sessions. None of these are
// retried; they propagate to the entry point.
type OrchestrationError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *OrchestrationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *OrchestrationError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *OrchestrationError) WithDetail(key string, value interface{}) *OrchestrationError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *OrchestrationError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new OrchestrationError
func New(code ErrorCode, message string) *OrchestrationError {
	return &OrchestrationError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an OrchestrationError
func Wrap(err error, code ErrorCode, message string) *OrchestrationError {
	return &OrchestrationError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// As returns the first OrchestrationError in err's chain.
func As(err error) (*OrchestrationError, bool) {
	for err != nil {
		if oe, ok := err.(*OrchestrationError); ok {
			return oe, true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = unwrapper.Unwrap()
	}
	return nil, false
}

// Is checks if an error is a specific OrchestrationError code
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	oe, ok := err.(*OrchestrationError)
	if !ok {
		// Try to unwrap
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return Is(unwrapper.Unwrap(), code)
		}
		return false
	}

	if oe.Code == code {
		return true
	}
	// A wrapped cause may carry the code we are looking for.
	return Is(oe.Cause, code)
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	oe, ok := As(err)
	if !ok {
		return ""
	}
	return oe.Code
}
