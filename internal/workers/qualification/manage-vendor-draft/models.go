// internal/workers/qualification/manage-vendor-draft/models.go
package managevendordraft

import (
	"encoding/json"

	"procurement-workers/internal/drafts"
	"procurement-workers/internal/models"
	"procurement-workers/internal/qualification"
)

const (
	ActionSave   = "save"
	ActionLoad   = "load"
	ActionList   = "list"
	ActionDelete = "delete"
)

type Input struct {
	Action   string `json:"action"`
	DraftID  string `json:"draftId,omitempty"`
	VendorID string `json:"vendorId,omitempty"`
	// Draft replaces the stored submission when present.
	Draft json.RawMessage `json:"draft,omitempty"`
	// Patch and Documents are applied on top of the stored (or supplied)
	// submission.
	Patch     *qualification.ProfilePatch     `json:"patch,omitempty"`
	Documents map[string]models.DocumentEntry `json:"documents,omitempty"`
}

type Output struct {
	Action   string                 `json:"action"`
	DraftID  string                 `json:"draftId,omitempty"`
	Draft    *drafts.Draft          `json:"draft,omitempty"`
	Metadata *models.DraftMetadata  `json:"metadata,omitempty"`
	Drafts   []models.DraftMetadata `json:"drafts,omitempty"`
	Deleted  bool                   `json:"deleted,omitempty"`
}
