package domain

import "errors"

// Common domain errors
var (
	ErrConfigInvalid  = errors.New("invalid configuration")
	ErrFieldListEmpty = errors.New("field list is empty")
	ErrParseFailed    = errors.New("document is not valid JSON")
)

// ErrorResponse defines the JSON error object emitted in place of a
// sanitised document when the input cannot be parsed. The shape is a
// compatibility contract: exactly one `error` string and one `stacktrace`
// diagnostic string, with no other guaranteed fields. Callers batch-reading
// sanitised output rely on every line being valid JSON, including failures.
type ErrorResponse struct {
	Error      string `json:"error"`      // Human-readable parse failure message
	Stacktrace string `json:"stacktrace"` // Diagnostic trace captured at the failure site
}
