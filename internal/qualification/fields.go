package qualification

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// FieldKind names a single-field validator.
type FieldKind string

const (
	FieldFutureDate     FieldKind = "future_date"
	FieldNotExpiredDate FieldKind = "not_expired_date"
	FieldSaudiMobile    FieldKind = "saudi_mobile"
	FieldURL            FieldKind = "url"
	FieldEmail          FieldKind = "email"
)

// FieldResult is the outcome of a single-field validator. Normalized is set
// only when the validator rewrites its input.
type FieldResult struct {
	Valid      bool        `json:"valid"`
	Normalized string      `json:"normalized,omitempty"`
	Error      *FieldError `json:"error,omitempty"`
}

func pass(normalized string) FieldResult {
	return FieldResult{Valid: true, Normalized: normalized}
}

func fail(kind ErrorKind, message string) FieldResult {
	return FieldResult{Valid: false, Error: &FieldError{Kind: kind, Message: message}}
}

// issue returns the result's error attached to field, or nil on success.
func (r FieldResult) issue(field string) *FieldError {
	if r.Valid || r.Error == nil {
		return nil
	}
	e := *r.Error
	e.Field = field
	return &e
}

var dateLayouts = []string{"2006-01-02", "02/01/2006"}

// ParseDate parses a calendar date in loc. RFC3339 timestamps are accepted and
// reduced to their date part.
func ParseDate(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
	}
	return time.Time{}, false
}

// StartOfDay returns local midnight of the day containing now.
func StartOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// FutureDate passes for an empty value or a date strictly after today.
func FutureDate(raw string, now time.Time) FieldResult {
	if strings.TrimSpace(raw) == "" {
		return pass("")
	}
	d, ok := ParseDate(raw, now.Location())
	if !ok {
		return fail(KindFormat, "must be a valid date (YYYY-MM-DD)")
	}
	if !d.After(StartOfDay(now)) {
		return fail(KindRange, "must be a future date")
	}
	return pass(d.Format("2006-01-02"))
}

// NotExpiredDate passes for an empty value or a date on or after today.
func NotExpiredDate(raw string, now time.Time) FieldResult {
	if strings.TrimSpace(raw) == "" {
		return pass("")
	}
	d, ok := ParseDate(raw, now.Location())
	if !ok {
		return fail(KindFormat, "must be a valid date (YYYY-MM-DD)")
	}
	if d.Before(StartOfDay(now)) {
		return fail(KindExpiredDocument, "has expired on "+d.Format("2006-01-02"))
	}
	return pass(d.Format("2006-01-02"))
}

var nonDigit = regexp.MustCompile(`\D`)

// NormalizeSaudiMobile accepts 9665XXXXXXXX, 05XXXXXXXX and 5XXXXXXXX (any
// punctuation ignored) and returns the number as +9665XXXXXXXX.
func NormalizeSaudiMobile(raw string) FieldResult {
	digits := nonDigit.ReplaceAllString(raw, "")

	var local string
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "9665"):
		local = digits[3:]
	case len(digits) == 10 && strings.HasPrefix(digits, "05"):
		local = digits[1:]
	case len(digits) == 9 && strings.HasPrefix(digits, "5"):
		local = digits
	default:
		return fail(KindFormat, "must be a Saudi mobile number (05XXXXXXXX or +9665XXXXXXXX)")
	}
	return pass("+966" + local)
}

// ValidateURL passes for an empty value or a well-formed http(s) URL.
func ValidateURL(raw string) FieldResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return pass("")
	}
	if err := validate.Var(raw, "url"); err != nil {
		return fail(KindFormat, "must be a valid URL")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fail(KindFormat, "must be a valid URL")
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return fail(KindFormat, "must start with http:// or https://")
	}
	return pass(raw)
}

// ValidateEmail requires a well-formed address.
func ValidateEmail(raw string) FieldResult {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fail(KindRequired, "is required")
	}
	if err := validate.Var(raw, "email"); err != nil {
		return fail(KindFormat, "must be a valid email address")
	}
	return pass(raw)
}

// ValidateField dispatches to the validator named by kind. Unknown kinds fail.
func ValidateField(kind FieldKind, raw string, now time.Time) FieldResult {
	switch kind {
	case FieldFutureDate:
		return FutureDate(raw, now)
	case FieldNotExpiredDate:
		return NotExpiredDate(raw, now)
	case FieldSaudiMobile:
		return NormalizeSaudiMobile(raw)
	case FieldURL:
		return ValidateURL(raw)
	case FieldEmail:
		return ValidateEmail(raw)
	default:
		return fail(KindFormat, "unknown field kind "+string(kind))
	}
}
