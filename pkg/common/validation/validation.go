// Package validation provides common validation utilities for the chunkflow library.
package validation

import (
	"fmt"
	"strings"

	cferrors "github.com/vnykmshr/chunkflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
// Returns a ValidationError if the value is not positive.
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return cferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
// Returns a ValidationError if the value is negative.
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return cferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidateMin validates that value is at least min.
func ValidateMin(module, field string, value, min int) error {
	if value < min {
		return cferrors.NewValidationError(module, field, value, fmt.Sprintf("must be at least %d", min))
	}
	return nil
}

// ValidateMultipleOf validates that value is a positive multiple of unit.
func ValidateMultipleOf(module, field string, value, unit int) error {
	if value < unit || value%unit != 0 {
		return cferrors.NewValidationError(module, field, value, fmt.Sprintf("must be a positive multiple of %d", unit)).
			WithHint(fmt.Sprintf("use %d, %d, %d, ...", unit, 2*unit, 3*unit))
	}
	return nil
}

// ValidateOneOf validates that value is one of the allowed strings.
func ValidateOneOf(module, field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return cferrors.NewValidationError(module, field, value, "unsupported value").
		WithHint("use one of: " + strings.Join(allowed, ", "))
}

// ValidateNotNil validates that an interface value is not nil.
// Returns a ValidationError if the value is nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return cferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
// Returns a ValidationError if the string is empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return cferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}
