// Package qualification implements the vendor qualification rules: field
// validators, the document requirement catalog, document entry checks, the
// weighted qualification score and the aggregate submission validator.
//
// Every function in this package is pure. Bad user input is reported as
// structured values, never as a panic or a Go error.
package qualification

import (
	"fmt"
	"sort"
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	KindFormat          ErrorKind = "FORMAT_ERROR"
	KindExpiredDocument ErrorKind = "EXPIRED_DOCUMENT"
	KindMissingDocument ErrorKind = "MISSING_MANDATORY_DOCUMENT"
	KindDomainMismatch  ErrorKind = "DOMAIN_MISMATCH"
	KindRange           ErrorKind = "RANGE_ERROR"
	KindRequired        ErrorKind = "REQUIRED_FIELD"
)

// FieldError is a single failed check keyed by the field it belongs to.
type FieldError struct {
	Field   string    `json:"field"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Kind)
}

func newFieldError(field string, kind ErrorKind, format string, args ...interface{}) FieldError {
	return FieldError{Field: field, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ErrorMap groups human-readable messages by field name.
type ErrorMap map[string][]string

// Add appends a message for field.
func (m ErrorMap) Add(field, message string) {
	m[field] = append(m[field], message)
}

// Fields returns the failing field names in sorted order.
func (m ErrorMap) Fields() []string {
	out := make([]string, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Count returns the total number of messages.
func (m ErrorMap) Count() int {
	n := 0
	for _, msgs := range m {
		n += len(msgs)
	}
	return n
}

// ToErrorMap folds a list of field errors into an ErrorMap.
func ToErrorMap(issues []FieldError) ErrorMap {
	m := make(ErrorMap, len(issues))
	for _, issue := range issues {
		m.Add(issue.Field, issue.Message)
	}
	return m
}

// CountByKind tallies issues per kind.
func CountByKind(issues []FieldError) map[ErrorKind]int {
	out := make(map[ErrorKind]int)
	for _, issue := range issues {
		out[issue.Kind]++
	}
	return out
}
