// internal/models/validation.go
package models

import (
	"fmt"
	"strings"
)

// Validation error codes.
const (
	CodeMissingRequired = "MISSING_REQUIRED"
	CodeInvalidFormat   = "INVALID_FORMAT"
	CodeOutOfRange      = "OUT_OF_RANGE"
	CodeInvalidValue    = "INVALID_VALUE"
)

// ValidationError describes exactly one violated rule for a single field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, code, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidationResult accumulates errors and warnings for one validation pass.
// Errors make the result invalid; warnings never do.
type ValidationResult struct {
	errors   []string
	warnings []string
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{}
}

func (r *ValidationResult) AddError(msg string) {
	r.errors = append(r.errors, msg)
}

func (r *ValidationResult) AddWarning(msg string) {
	r.warnings = append(r.warnings, msg)
}

// IsValid is true iff no error was added.
func (r *ValidationResult) IsValid() bool {
	return len(r.errors) == 0
}

func (r *ValidationResult) Errors() []string {
	return append([]string(nil), r.errors...)
}

func (r *ValidationResult) Warnings() []string {
	return append([]string(nil), r.warnings...)
}

// Merge appends other's errors and warnings, preserving their order.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.errors = append(r.errors, other.errors...)
	r.warnings = append(r.warnings, other.warnings...)
}

// Report lists errors then warnings in insertion order. An empty result
// reports an empty string.
func (r *ValidationResult) Report() string {
	var b strings.Builder
	if len(r.errors) > 0 {
		b.WriteString("Errors:\n")
		for _, e := range r.errors {
			b.WriteString("  - ")
			b.WriteString(e)
			b.WriteString("\n")
		}
	}
	if len(r.warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range r.warnings {
			b.WriteString("  - ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}
