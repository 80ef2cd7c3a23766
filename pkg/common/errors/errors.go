package errors

import (
	"errors"
	"fmt"
)

// Common error values used across the chunkflow library

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrUpstreamFailed is forwarded down the chain when a producer stage
	// terminated abnormally.
	ErrUpstreamFailed = errors.New("upstream stage failed")
)

// Kind categorizes pipeline failures. A Kind is itself an error so callers
// can match with errors.Is(err, errors.KindConfigGrammar).
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindConfigRead
	KindConfigGrammar
	KindConfigSemantic
	KindInvalidInputStream
	KindInvalidOutputStream
	KindFailedToRead
	KindFailedToWrite
	KindPipelineConstruction
	KindSynchronization
)

var kindNames = [...]string{
	KindUnknown:              "unknown",
	KindInvalidArgument:      "invalid argument",
	KindConfigRead:           "config read failure",
	KindConfigGrammar:        "config grammar error",
	KindConfigSemantic:       "config semantic error",
	KindInvalidInputStream:   "invalid input stream",
	KindInvalidOutputStream:  "invalid output stream",
	KindFailedToRead:         "failed to read",
	KindFailedToWrite:        "failed to write",
	KindPipelineConstruction: "pipeline construction failure",
	KindSynchronization:      "synchronization error",
}

// String returns the human readable name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error implements error so a Kind can be used as an errors.Is target.
func (k Kind) Error() string {
	return k.String()
}

// ValidationError describes a configuration value that failed a domain rule.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same instance.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Is reports a ValidationError as a config semantic error.
func (e *ValidationError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == KindConfigSemantic
}

// OperationError is a categorized failure of a named operation, usually
// attributed to a single pipeline stage.
type OperationError struct {
	Kind      Kind
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError of the given kind.
func NewOperationError(kind Kind, module, operation string, cause error) *OperationError {
	return &OperationError{
		Kind:      kind,
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same instance.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %s", e.Module, e.Operation, e.Kind)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *OperationError) Unwrap() error {
	return e.Cause
}

// Is matches the error's Kind.
func (e *OperationError) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// IsValidationError returns true if err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// KindOf returns the outermost Kind found in err's chain. Errors of other
// types are classified through their Is method.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	if IsValidationError(err) {
		return KindConfigSemantic
	}
	for k := KindInvalidArgument; k <= KindSynchronization; k++ {
		if errors.Is(err, k) {
			return k
		}
	}
	return KindUnknown
}
