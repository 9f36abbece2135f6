package qualification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procurement-workers/internal/models"
)

func validProfile() models.VendorProfile {
	return models.VendorProfile{
		LegalName:         "Al Redwan Trading",
		LicenseNumber:     "1010123456",
		VendorType:        models.VendorTypeContractor,
		BusinessType:      "LLC",
		YearsInBusiness:   12,
		NumberOfEmployees: 240,
		CategoryCodes:     []string{"CIV-01", "MEP-04"},
		Website:           "https://alredwan.com.sa",
		Contact: models.ContactInfo{
			Name:  "Faisal Al Qahtani",
			Title: "Procurement Manager",
			Phone: "0512345678",
			Email: "faisal@alredwan.com.sa",
		},
	}
}

func fieldsOf(issues []FieldError) map[string]ErrorKind {
	out := make(map[string]ErrorKind, len(issues))
	for _, issue := range issues {
		out[issue.Field] = issue.Kind
	}
	return out
}

func TestValidateProfile_Valid(t *testing.T) {
	assert.Empty(t, ValidateProfile(validProfile()))
}

func TestValidateProfile_Empty(t *testing.T) {
	got := fieldsOf(ValidateProfile(models.VendorProfile{}))

	for _, field := range []string{"legalName", "licenseNumber", "vendorType", "contact.name", "contact.phone", "contact.email"} {
		assert.Equal(t, KindRequired, got[field], field)
	}
}

func TestValidateProfile_Ranges(t *testing.T) {
	p := validProfile()
	p.YearsInBusiness = 101
	p.NumberOfEmployees = 10001
	p.Contact.Email = "faisal-at-alredwan"
	p.VendorType = "Astronaut"
	p.CategoryCodes = []string{"CIV-01", ""}

	issues := ValidateProfile(p)
	got := fieldsOf(issues)

	assert.Equal(t, KindRange, got["yearsInBusiness"])
	assert.Equal(t, KindRange, got["numberOfEmployees"])
	assert.Equal(t, KindFormat, got["contact.email"])
	assert.Equal(t, KindFormat, got["vendorType"])
	assert.Equal(t, KindRequired, got["categoryCodes[1]"])

	for _, issue := range issues {
		if issue.Field == "yearsInBusiness" {
			assert.Equal(t, "must be at most 100", issue.Message)
		}
	}
}

func TestValidateProfile_VendorTypeSpelling(t *testing.T) {
	p := validProfile()
	p.VendorType = "service provider"
	assert.Empty(t, ValidateProfile(p))
}

func TestValidateProject(t *testing.T) {
	issues := ValidateProject(models.ProjectExperienceRecord{ContractValue: -5}, "projects[2].")
	got := fieldsOf(issues)
	assert.Equal(t, KindRequired, got["projects[2].projectName"])
	assert.Equal(t, KindRequired, got["projects[2].clientName"])
	assert.Equal(t, KindRange, got["projects[2].contractValue"])
}

func TestApplyProfilePatch(t *testing.T) {
	orig := validProfile()
	name := "Al Redwan Contracting"
	years := 13
	email := "ops@alredwan.com.sa"

	patched := ApplyProfilePatch(orig, ProfilePatch{
		LegalName:       &name,
		YearsInBusiness: &years,
		Contact:         &ContactPatch{Email: &email},
	})

	assert.Equal(t, name, patched.LegalName)
	assert.Equal(t, 13, patched.YearsInBusiness)
	assert.Equal(t, email, patched.Contact.Email)
	assert.Equal(t, orig.Contact.Phone, patched.Contact.Phone)

	assert.Equal(t, "Al Redwan Trading", orig.LegalName)
	assert.Equal(t, 12, orig.YearsInBusiness)
	assert.Equal(t, "faisal@alredwan.com.sa", orig.Contact.Email)
}

func TestApplyProfilePatch_CopiesSlices(t *testing.T) {
	orig := validProfile()
	patched := ApplyProfilePatch(orig, ProfilePatch{})
	require.Equal(t, orig, patched)

	patched.CategoryCodes[0] = "CHANGED"
	assert.Equal(t, "CIV-01", orig.CategoryCodes[0])
}
