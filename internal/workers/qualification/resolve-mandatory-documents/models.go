// internal/workers/qualification/resolve-mandatory-documents/models.go
package resolvemandatorydocuments

import "procurement-workers/internal/models"

type Input struct {
	VendorType string `json:"vendorType"`
}

type Output struct {
	VendorTypeKey      string                       `json:"vendorTypeKey"`
	KnownVendorType    bool                         `json:"knownVendorType"`
	DocumentKeys       []string                     `json:"documentKeys"`
	MandatoryDocuments []models.DocumentRequirement `json:"mandatoryDocuments"`
}
