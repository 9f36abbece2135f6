// internal/models/draft.go
package models

import "time"

// DraftMetadata describes a stored vendor draft without its payload.
type DraftMetadata struct {
	ID        string    `json:"id"`
	VendorID  string    `json:"vendorId,omitempty"`
	SizeBytes int       `json:"sizeBytes"`
	UpdatedAt time.Time `json:"updatedAt"`
}
