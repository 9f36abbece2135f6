// internal/workers/qualification/validate-vendor-submission/models.go
package validatevendorsubmission

import (
	"encoding/json"

	"procurement-workers/internal/qualification"
)

type Input struct {
	VendorID string `json:"vendorId"`
	// State is the submission's current state; empty means DRAFT.
	State      qualification.State `json:"state,omitempty"`
	Submission json.RawMessage     `json:"submission"`
}

type Output struct {
	IsValid            bool                      `json:"isValid"`
	State              qualification.State       `json:"state"`
	ValidatedData      *qualification.Submission `json:"validatedData"`
	MandatoryDocuments []string                  `json:"mandatoryDocuments"`
}
