// Package validation provides common validation utilities for configuration
// parameters across the chunkflow library.
//
// Stage configuration parsers use these helpers so that every semantic
// failure surfaces as a *errors.ValidationError, which in turn matches
// errors.KindConfigSemantic.
package validation
