package qualification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"procurement-workers/internal/models"
)

// State is the lifecycle state of a vendor submission.
type State string

const (
	StateDraft      State = "DRAFT"
	StateValidating State = "VALIDATING"
	StateValid      State = "VALID"
	StateInvalid    State = "INVALID"
)

var transitions = map[State][]State{
	StateDraft:      {StateValidating},
	StateValidating: {StateValid, StateInvalid},
	StateInvalid:    {StateDraft, StateValidating},
}

// Transition returns to if the move from -> to is allowed.
func Transition(from, to State) (State, error) {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return to, nil
		}
	}
	return from, fmt.Errorf("illegal submission transition %s -> %s", from, to)
}

// Submission is everything a vendor sends for qualification.
type Submission struct {
	Profile   models.VendorProfile             `json:"profile"`
	Documents map[string]models.DocumentEntry  `json:"documents"`
	Projects  []models.ProjectExperienceRecord `json:"projects,omitempty"`
}

// SubmissionResult is the outcome of one validation pass. On success Data is
// the normalised submission and Errors is empty.
type SubmissionResult struct {
	OK                 bool         `json:"ok"`
	State              State        `json:"state"`
	Data               *Submission  `json:"data,omitempty"`
	Errors             ErrorMap     `json:"errors,omitempty"`
	Issues             []FieldError `json:"issues,omitempty"`
	MandatoryDocuments []string     `json:"mandatoryDocuments"`
}

// Validator runs the aggregate submission checks.
type Validator struct {
	catalog *Catalog
	now     func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithClock sets the time source used for date checks.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) { v.now = now }
}

// WithCatalog replaces the default document catalog.
func WithCatalog(c *Catalog) Option {
	return func(v *Validator) { v.catalog = c }
}

// NewValidator returns a Validator using the default catalog and wall clock.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{catalog: defaultCatalog, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// ValidateSubmission runs every check and collects all failures. The
// submission is VALID only when nothing fails.
func (v *Validator) ValidateSubmission(s Submission) SubmissionResult {
	now := v.now()
	data := cloneSubmission(s)
	var issues []FieldError

	issues = append(issues, ValidateProfile(data.Profile)...)

	if res := ValidateURL(data.Profile.Website); !res.Valid {
		issues = append(issues, *res.issue("website"))
	}

	if data.Profile.Contact.Phone != "" {
		if res := NormalizeSaudiMobile(data.Profile.Contact.Phone); res.Valid {
			data.Profile.Contact.Phone = res.Normalized
		} else {
			issues = append(issues, *res.issue("contact.phone"))
		}
	}

	email := data.Profile.Contact.Email
	if email != "" && data.Profile.LegalName != "" && !EmailDomainMatchesCompany(email, data.Profile.LegalName) {
		issues = append(issues, newFieldError("contact.email", KindDomainMismatch,
			"email domain does not match the company name"))
	}

	required := v.catalog.ResolveMandatoryDocuments(data.Profile.VendorType)
	issues = append(issues, v.catalog.ValidateDocumentEntries(data.Documents, required, now)...)
	issues = append(issues, v.catalog.ValidateOptionalDocuments(data.Documents, required, now)...)

	for i, p := range data.Projects {
		issues = append(issues, validateProjectDates(p, i, now)...)
	}

	result := SubmissionResult{MandatoryDocuments: required.Keys()}
	if len(issues) > 0 {
		result.State = StateInvalid
		result.Errors = ToErrorMap(issues)
		result.Issues = issues
		return result
	}
	result.OK = true
	result.State = StateValid
	result.Data = &data
	return result
}

func validateProjectDates(p models.ProjectExperienceRecord, i int, now time.Time) []FieldError {
	prefix := fmt.Sprintf("projects[%d].", i)
	issues := ValidateProject(p, prefix)

	start, startOK := parseOptionalDate(p.StartDate, now.Location())
	end, endOK := parseOptionalDate(p.EndDate, now.Location())
	if !startOK {
		issues = append(issues, newFieldError(prefix+"startDate", KindFormat, "must be a valid date (YYYY-MM-DD)"))
	}
	if !endOK {
		issues = append(issues, newFieldError(prefix+"endDate", KindFormat, "must be a valid date (YYYY-MM-DD)"))
	}
	if startOK && endOK && !start.IsZero() && !end.IsZero() && end.Before(start) {
		issues = append(issues, newFieldError(prefix+"endDate", KindRange, "must not be before the start date"))
	}
	return issues
}

func parseOptionalDate(raw string, loc *time.Location) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	return ParseDate(raw, loc)
}

func cloneSubmission(s Submission) Submission {
	out := Submission{
		Profile:   ApplyProfilePatch(s.Profile, ProfilePatch{}),
		Documents: make(map[string]models.DocumentEntry, len(s.Documents)),
		Projects:  append([]models.ProjectExperienceRecord(nil), s.Projects...),
	}
	for k, d := range s.Documents {
		out.Documents[k] = d
	}
	return out
}

// DecodeSubmission parses a JSON submission, rejecting unknown keys.
func DecodeSubmission(raw []byte) (Submission, error) {
	var s Submission
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Submission{}, fmt.Errorf("decode submission: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Submission{}, fmt.Errorf("decode submission: trailing data")
	}
	return s, nil
}

// ValidateSubmission validates s with the default catalog and wall clock.
func ValidateSubmission(s Submission) SubmissionResult {
	return NewValidator().ValidateSubmission(s)
}
