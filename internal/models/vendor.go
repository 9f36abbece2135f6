// internal/models/vendor.go
package models

// Vendor types accepted by the qualification workflow.
const (
	VendorTypeContractor      = "Contractor"
	VendorTypeSubcontractor   = "Subcontractor"
	VendorTypeSupplier        = "Supplier"
	VendorTypeManufacturer    = "Manufacturer"
	VendorTypeDistributor     = "Distributor"
	VendorTypeServiceProvider = "ServiceProvider"
	VendorTypeConsultant      = "Consultant"
)

// VendorTypes lists every vendor type in display order.
var VendorTypes = []string{
	VendorTypeContractor,
	VendorTypeSubcontractor,
	VendorTypeSupplier,
	VendorTypeManufacturer,
	VendorTypeDistributor,
	VendorTypeServiceProvider,
	VendorTypeConsultant,
}

// VendorProfile holds the identity and business attributes submitted by a vendor.
type VendorProfile struct {
	LegalName         string      `json:"legalName" validate:"required,max=200"`
	LicenseNumber     string      `json:"licenseNumber" validate:"required,max=50"`
	VendorType        string      `json:"vendorType" validate:"required,vendortype"`
	BusinessType      string      `json:"businessType,omitempty" validate:"omitempty,max=100"`
	YearsInBusiness   int         `json:"yearsInBusiness" validate:"min=0,max=100"`
	NumberOfEmployees int         `json:"numberOfEmployees" validate:"min=0,max=10000"`
	CategoryCodes     []string    `json:"categoryCodes,omitempty" validate:"omitempty,dive,required"`
	Website           string      `json:"website,omitempty"`
	Contact           ContactInfo `json:"contact"`
}

// ContactInfo is the primary contact block of a vendor profile.
type ContactInfo struct {
	Name    string `json:"name" validate:"required,max=100"`
	Title   string `json:"title,omitempty" validate:"omitempty,max=100"`
	Phone   string `json:"phone" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address,omitempty" validate:"omitempty,max=500"`
}

// ProjectExperienceRecord describes a past project used as a reference.
type ProjectExperienceRecord struct {
	ProjectName           string  `json:"projectName" validate:"required"`
	ClientName            string  `json:"clientName" validate:"required"`
	ContractValue         float64 `json:"contractValue" validate:"min=0"`
	StartDate             string  `json:"startDate,omitempty"`
	EndDate               string  `json:"endDate,omitempty"`
	ScopeDescription      string  `json:"scopeDescription,omitempty"`
	ReferenceContact      string  `json:"referenceContact,omitempty"`
	CompletionCertificate string  `json:"completionCertificate,omitempty"`
}
