package qualification

import (
	"sort"
	"strings"
	"unicode"

	"procurement-workers/internal/models"
)

// Document keys.
const (
	DocCommercialRegistration = "COMMERCIAL_REGISTRATION"
	DocZakatCertificate       = "ZAKAT_CERTIFICATE"
	DocISOCertificate         = "ISO_CERTIFICATE"
	DocVATCertificate         = "VAT_CERTIFICATE"
	DocGOSICertificate        = "GOSI_CERTIFICATE"
	DocBankLetter             = "BANK_LETTER"
	DocCompanyProfile         = "COMPANY_PROFILE"
	DocInsuranceCertificate   = "INSURANCE_CERTIFICATE"
	DocHSEPlan                = "HSE_PLAN"
	DocOrganizationChart      = "ORGANIZATION_CHART"
	DocSASOCertificate        = "SASO_CERTIFICATE"
	DocChamberOfCommerce      = "CHAMBER_OF_COMMERCE"
	DocSaudizationCertificate = "SAUDIZATION_CERTIFICATE"
	DocMunicipalityLicense    = "MUNICIPALITY_LICENSE"
)

var documentCatalog = []models.DocumentRequirement{
	{Key: DocCommercialRegistration, Label: "Commercial Registration (CR)", HasExpiry: true, HasNumber: true, IsMandatory: true, NumberLabel: "CR Number"},
	{Key: DocZakatCertificate, Label: "Zakat Certificate", HasExpiry: true, HasNumber: true, IsMandatory: true, NumberLabel: "Zakat Certificate Number"},
	{Key: DocISOCertificate, Label: "ISO Certificate", HasExpiry: true, HasNumber: true, IsMandatory: true, NumberLabel: "ISO Certificate Number"},
	{Key: DocVATCertificate, Label: "VAT Registration Certificate", HasExpiry: false, HasNumber: true, IsMandatory: true, NumberLabel: "VAT Number"},
	{Key: DocGOSICertificate, Label: "GOSI Certificate", HasExpiry: true, HasNumber: true, IsMandatory: true, NumberLabel: "GOSI Certificate Number"},
	{Key: DocBankLetter, Label: "Bank Letter", HasExpiry: false, HasNumber: false, IsMandatory: true},
	{Key: DocCompanyProfile, Label: "Company Profile", HasExpiry: false, HasNumber: false, IsMandatory: true},
	{Key: DocInsuranceCertificate, Label: "Insurance Certificate", HasExpiry: true, HasNumber: true, NumberLabel: "Policy Number", Condition: "Required for contractors and subcontractors"},
	{Key: DocHSEPlan, Label: "HSE Plan", Condition: "Required for contractors and subcontractors"},
	{Key: DocOrganizationChart, Label: "Organization Chart", Condition: "Required for contractors and subcontractors"},
	{Key: DocSASOCertificate, Label: "SASO / SABER Certificate", HasExpiry: true, HasNumber: true, NumberLabel: "SABER Certificate Number", Condition: "Required for suppliers, manufacturers and distributors"},
	{Key: DocChamberOfCommerce, Label: "Chamber of Commerce Membership", HasExpiry: true, HasNumber: true, NumberLabel: "Membership Number"},
	{Key: DocSaudizationCertificate, Label: "Saudization (Nitaqat) Certificate", HasExpiry: true},
	{Key: DocMunicipalityLicense, Label: "Municipality License", HasExpiry: true, HasNumber: true, NumberLabel: "License Number", Condition: "When operating a physical facility"},
}

// typeSpecificDocuments is keyed by normalized vendor type.
var typeSpecificDocuments = map[string][]string{
	"contractor":    {DocInsuranceCertificate, DocHSEPlan, DocOrganizationChart},
	"subcontractor": {DocInsuranceCertificate, DocHSEPlan, DocOrganizationChart},
	"supplier":      {DocSASOCertificate},
	"manufacturer":  {DocSASOCertificate},
	"distributor":   {DocSASOCertificate},
}

// DocumentSet is an unordered set of document keys.
type DocumentSet map[string]struct{}

// NewDocumentSet builds a set from keys, dropping duplicates.
func NewDocumentSet(keys ...string) DocumentSet {
	s := make(DocumentSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports whether key is in the set.
func (s DocumentSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Keys returns the set members in sorted order.
func (s DocumentSet) Keys() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Catalog is the read-only document requirement table.
type Catalog struct {
	byKey     map[string]models.DocumentRequirement
	order     []string
	base      []string
	additions map[string][]string
}

// DefaultCatalog returns the procurement document catalog.
func DefaultCatalog() *Catalog {
	c := &Catalog{
		byKey:     make(map[string]models.DocumentRequirement, len(documentCatalog)),
		additions: typeSpecificDocuments,
	}
	for _, req := range documentCatalog {
		c.byKey[req.Key] = req
		c.order = append(c.order, req.Key)
		if req.IsMandatory {
			c.base = append(c.base, req.Key)
		}
	}
	return c
}

// Requirement looks up a catalog entry by key.
func (c *Catalog) Requirement(key string) (models.DocumentRequirement, bool) {
	req, ok := c.byKey[key]
	return req, ok
}

// All returns every catalog entry in catalog order.
func (c *Catalog) All() []models.DocumentRequirement {
	out := make([]models.DocumentRequirement, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.byKey[k])
	}
	return out
}

// BaseMandatory returns the documents every vendor must provide.
func (c *Catalog) BaseMandatory() DocumentSet {
	return NewDocumentSet(c.base...)
}

// NormalizeVendorType strips all whitespace and case-folds a vendor type so
// "Service Provider" and "serviceprovider" resolve to the same key.
func NormalizeVendorType(vendorType string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, vendorType)
}

// ResolveMandatoryDocuments returns the base set plus the additions for the
// vendor type. Unknown types get the base set only.
func (c *Catalog) ResolveMandatoryDocuments(vendorType string) DocumentSet {
	set := c.BaseMandatory()
	for _, key := range c.additions[NormalizeVendorType(vendorType)] {
		set[key] = struct{}{}
	}
	return set
}

// Requirements expands a set into catalog entries sorted by key. Keys that
// are not in the catalog are skipped.
func (c *Catalog) Requirements(set DocumentSet) []models.DocumentRequirement {
	keys := set.Keys()
	out := make([]models.DocumentRequirement, 0, len(keys))
	for _, k := range keys {
		if req, ok := c.byKey[k]; ok {
			out = append(out, req)
		}
	}
	return out
}

var defaultCatalog = DefaultCatalog()

// ResolveMandatoryDocuments resolves against the default catalog.
func ResolveMandatoryDocuments(vendorType string) DocumentSet {
	return defaultCatalog.ResolveMandatoryDocuments(vendorType)
}
