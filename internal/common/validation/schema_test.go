package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedSchemas(t *testing.T) {
	for _, name := range []string{"validate-vendor-submission", "qualification-scores", "manage-vendor-draft"} {
		_, err := Load(name)
		assert.NoError(t, err, name)
	}
	_, err := Load("does-not-exist")
	assert.Error(t, err)
}

func TestSubmissionSchema_RejectsUnknownKeys(t *testing.T) {
	s := MustLoad("validate-vendor-submission")

	res := s.ValidateJSON([]byte(`{
		"vendorId": "v-1",
		"processStarter": "portal",
		"submission": {
			"profile": {"legalName": "Al Redwan Trading", "favouriteColour": "blue"},
			"documents": {"BANK_LETTER": {"fileRef": "b.pdf", "signedBy": "cfo"}}
		}
	}`))

	require.False(t, res.Valid)
	assert.True(t, res.HasErrors("submission.profile.favouriteColour"))
	assert.True(t, res.HasErrors("submission.documents.BANK_LETTER.signedBy"))
	assert.False(t, res.HasErrors("processStarter"))
	assert.Len(t, res.GetErrorsForField("submission"), 2)
}

func TestSubmissionSchema_Types(t *testing.T) {
	s := MustLoad("validate-vendor-submission")

	res := s.ValidateInput(map[string]interface{}{
		"vendorId": "v-1",
		"submission": map[string]interface{}{
			"profile": map[string]interface{}{"yearsInBusiness": "twelve"},
		},
	})
	require.False(t, res.Valid)
	assert.True(t, res.HasErrors("submission.profile.yearsInBusiness"))
	assert.NotEmpty(t, res.GetErrorMessages())
}

func TestDraftSchema(t *testing.T) {
	s := MustLoad("manage-vendor-draft")

	assert.True(t, s.ValidateJSON([]byte(`{"action":"list"}`)).Valid)
	assert.False(t, s.ValidateJSON([]byte(`{"action":"load"}`)).Valid)
	assert.False(t, s.ValidateJSON([]byte(`{"action":"archive","draftId":"d"}`)).Valid)
	assert.False(t, s.ValidateJSON([]byte(`not json`)).Valid)
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "submission.projects[0].endDate", fieldPath("submission.projects.0.endDate"))
	assert.Equal(t, "categoryCodes[2]", fieldPath("categoryCodes.2"))
	assert.Equal(t, "(root)", fieldPath("(root)"))
}
