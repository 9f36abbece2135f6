// internal/models/document.go
package models

// DocumentRequirement is a catalog entry describing one qualification document.
type DocumentRequirement struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	HasExpiry   bool   `json:"hasExpiry"`
	HasNumber   bool   `json:"hasNumber"`
	IsMandatory bool   `json:"isMandatory"`
	NumberLabel string `json:"numberLabel,omitempty"`
	Condition   string `json:"condition,omitempty"`
}

// DocumentEntry is the evidence a vendor submitted for one requirement.
// FileRef is an opaque reference issued by the upload service.
type DocumentEntry struct {
	FileRef    string `json:"fileRef"`
	Number     string `json:"number,omitempty"`
	ExpiryDate string `json:"expiryDate,omitempty"`
}

// HasFile reports whether an uploaded file is attached to the entry.
func (d DocumentEntry) HasFile() bool {
	return d.FileRef != ""
}
