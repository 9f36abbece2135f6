package qualification

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"procurement-workers/internal/models"
)

var validate = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their JSON names so error keys match the payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("vendortype", func(fl validator.FieldLevel) bool {
		return IsKnownVendorType(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsKnownVendorType reports whether vendorType names one of models.VendorTypes,
// ignoring case and whitespace.
func IsKnownVendorType(vendorType string) bool {
	key := NormalizeVendorType(vendorType)
	if key == "" {
		return false
	}
	for _, t := range models.VendorTypes {
		if NormalizeVendorType(t) == key {
			return true
		}
	}
	return false
}

// ValidateProfile applies the struct rules of a vendor profile and returns one
// issue per failing field. Field names are dotted JSON paths (contact.email).
func ValidateProfile(p models.VendorProfile) []FieldError {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{newFieldError("profile", KindFormat, "%v", err)}
	}
	return fromValidationErrors(verrs, "VendorProfile.")
}

// ValidateProject applies the struct rules of one project record. prefix is
// prepended to every field name.
func ValidateProject(p models.ProjectExperienceRecord, prefix string) []FieldError {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{newFieldError(strings.TrimSuffix(prefix, "."), KindFormat, "%v", err)}
	}
	issues := fromValidationErrors(verrs, "ProjectExperienceRecord.")
	for i := range issues {
		issues[i].Field = prefix + issues[i].Field
	}
	return issues
}

func fromValidationErrors(verrs validator.ValidationErrors, root string) []FieldError {
	issues := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), root)
		issues = append(issues, describe(field, fe))
	}
	return issues
}

func describe(field string, fe validator.FieldError) FieldError {
	switch fe.Tag() {
	case "required":
		return newFieldError(field, KindRequired, "is required")
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return newFieldError(field, KindRange, "must be at least %s characters", fe.Param())
		}
		return newFieldError(field, KindRange, "must be at least %s", fe.Param())
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return newFieldError(field, KindRange, "must be at most %s characters", fe.Param())
		}
		return newFieldError(field, KindRange, "must be at most %s", fe.Param())
	case "email":
		return newFieldError(field, KindFormat, "must be a valid email address")
	case "vendortype":
		return newFieldError(field, KindFormat, "must be one of %s", strings.Join(models.VendorTypes, ", "))
	default:
		return newFieldError(field, KindFormat, "failed %s validation", fe.Tag())
	}
}

// ProfilePatch holds the fields to change on a profile. Nil fields are left
// untouched.
type ProfilePatch struct {
	LegalName         *string       `json:"legalName,omitempty"`
	LicenseNumber     *string       `json:"licenseNumber,omitempty"`
	VendorType        *string       `json:"vendorType,omitempty"`
	BusinessType      *string       `json:"businessType,omitempty"`
	YearsInBusiness   *int          `json:"yearsInBusiness,omitempty"`
	NumberOfEmployees *int          `json:"numberOfEmployees,omitempty"`
	CategoryCodes     []string      `json:"categoryCodes,omitempty"`
	Website           *string       `json:"website,omitempty"`
	Contact           *ContactPatch `json:"contact,omitempty"`
}

// ContactPatch is the contact block of a ProfilePatch.
type ContactPatch struct {
	Name    *string `json:"name,omitempty"`
	Title   *string `json:"title,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

// ApplyProfilePatch returns a copy of p with patch applied. p is not modified.
func ApplyProfilePatch(p models.VendorProfile, patch ProfilePatch) models.VendorProfile {
	out := p
	out.CategoryCodes = append([]string(nil), p.CategoryCodes...)

	setString(&out.LegalName, patch.LegalName)
	setString(&out.LicenseNumber, patch.LicenseNumber)
	setString(&out.VendorType, patch.VendorType)
	setString(&out.BusinessType, patch.BusinessType)
	setInt(&out.YearsInBusiness, patch.YearsInBusiness)
	setInt(&out.NumberOfEmployees, patch.NumberOfEmployees)
	setString(&out.Website, patch.Website)
	if patch.CategoryCodes != nil {
		out.CategoryCodes = append([]string(nil), patch.CategoryCodes...)
	}
	if c := patch.Contact; c != nil {
		setString(&out.Contact.Name, c.Name)
		setString(&out.Contact.Title, c.Title)
		setString(&out.Contact.Phone, c.Phone)
		setString(&out.Contact.Email, c.Email)
		setString(&out.Contact.Address, c.Address)
	}
	return out
}
