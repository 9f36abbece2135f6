package managevendordraft

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"procurement-workers/internal/common/camunda/camundatest"
	"procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/drafts"
	"procurement-workers/internal/models"
	"procurement-workers/internal/qualification"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func newTestHandler(t *testing.T) (*Handler, *drafts.RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	store := drafts.NewRedisStore(rdb, "draft:", time.Hour)
	return NewHandler(LoadConfig(), store, logger.NewTestLogger(t)), store
}

type failingStore struct{ err error }

func (f failingStore) Save(context.Context, drafts.Draft) (models.DraftMetadata, error) {
	return models.DraftMetadata{}, f.err
}
func (f failingStore) Load(context.Context, string) (drafts.Draft, error) { return drafts.Draft{}, f.err }
func (f failingStore) List(context.Context, string) ([]models.DraftMetadata, error) {
	return nil, f.err
}
func (f failingStore) Delete(context.Context, string) error { return f.err }

const draftPayload = `{
	"profile": {
		"legalName": "Al Noor Trading",
		"licenseNumber": "CR-1010",
		"vendorType": "Supplier",
		"contact": {"name": "Sara", "phone": "0551234567", "email": "sara@alnoor.sa"}
	},
	"documents": {"BANK_LETTER": {"fileRef": "f-1"}}
}`

func strPtr(s string) *string { return &s }

func requireStdCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	var std *errors.StandardError
	require.True(t, stderrors.As(err, &std), "expected StandardError, got %v", err)
	assert.Equal(t, code, std.Code)
}

// ==========================
// Save / Load
// ==========================

func TestExecute_SaveNewDraftAssignsID(t *testing.T) {
	h, store := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Action:   ActionSave,
		VendorID: "v-1",
		Draft:    json.RawMessage(draftPayload),
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.DraftID)
	require.NotNil(t, out.Metadata)
	assert.Equal(t, "v-1", out.Metadata.VendorID)
	assert.Equal(t, qualification.StateDraft, out.Draft.State)

	stored, err := store.Load(context.Background(), out.DraftID)
	require.NoError(t, err)
	assert.Equal(t, "Al Noor Trading", stored.Submission.Profile.LegalName)
	assert.Equal(t, "f-1", stored.Submission.Documents["BANK_LETTER"].FileRef)
}

func TestExecute_SaveAppliesPatchToStoredDraft(t *testing.T) {
	h, store := newTestHandler(t)
	ctx := context.Background()

	first, err := h.Execute(ctx, &Input{Action: ActionSave, VendorID: "v-1", Draft: json.RawMessage(draftPayload)})
	require.NoError(t, err)

	out, err := h.Execute(ctx, &Input{
		Action:  ActionSave,
		DraftID: first.DraftID,
		Patch: &qualification.ProfilePatch{
			LegalName: strPtr("Al Noor Trading Co"),
			Contact:   &qualification.ContactPatch{Email: strPtr("info@alnoortrading.sa")},
		},
		Documents: map[string]models.DocumentEntry{
			"VAT_CERTIFICATE": {FileRef: "f-2", Number: "300000000000003"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, first.DraftID, out.DraftID)

	stored, err := store.Load(ctx, first.DraftID)
	require.NoError(t, err)
	assert.Equal(t, "v-1", stored.VendorID)
	assert.Equal(t, "Al Noor Trading Co", stored.Submission.Profile.LegalName)
	assert.Equal(t, "info@alnoortrading.sa", stored.Submission.Profile.Contact.Email)
	assert.Equal(t, "Sara", stored.Submission.Profile.Contact.Name)
	assert.Len(t, stored.Submission.Documents, 2)

	// the first response still holds the pre-patch value
	assert.Equal(t, "Al Noor Trading", first.Draft.Submission.Profile.LegalName)
}

func TestExecute_SaveWithUnknownIDCreatesIt(t *testing.T) {
	h, _ := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Action:  ActionSave,
		DraftID: "draft-42",
		Patch:   &qualification.ProfilePatch{LegalName: strPtr("Delta Works")},
	})
	require.NoError(t, err)
	assert.Equal(t, "draft-42", out.DraftID)
	assert.Equal(t, "Delta Works", out.Draft.Submission.Profile.LegalName)
}

func TestExecute_SaveRejectsUnknownSubmissionKeys(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{
		Action: ActionSave,
		Draft:  json.RawMessage(`{"profile": {"legalName": "X", "nickname": "y"}}`),
	})
	requireStdCode(t, err, errors.ErrCodeInputParsingFailed)
}

func TestExecute_LoadMissingDraft(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{Action: ActionLoad, DraftID: "nope"})
	requireStdCode(t, err, errors.ErrCodeDraftNotFound)
}

// ==========================
// List / Delete
// ==========================

func TestExecute_ListFiltersByVendor(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()

	for _, vendor := range []string{"v-1", "v-1", "v-2"} {
		_, err := h.Execute(ctx, &Input{Action: ActionSave, VendorID: vendor, Draft: json.RawMessage(draftPayload)})
		require.NoError(t, err)
	}

	out, err := h.Execute(ctx, &Input{Action: ActionList, VendorID: "v-1"})
	require.NoError(t, err)
	assert.Len(t, out.Drafts, 2)

	all, err := h.Execute(ctx, &Input{Action: ActionList})
	require.NoError(t, err)
	assert.Len(t, all.Drafts, 3)
}

func TestExecute_Delete(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()

	saved, err := h.Execute(ctx, &Input{Action: ActionSave, Draft: json.RawMessage(draftPayload)})
	require.NoError(t, err)

	out, err := h.Execute(ctx, &Input{Action: ActionDelete, DraftID: saved.DraftID})
	require.NoError(t, err)
	assert.True(t, out.Deleted)

	_, err = h.Execute(ctx, &Input{Action: ActionDelete, DraftID: saved.DraftID})
	requireStdCode(t, err, errors.ErrCodeDraftNotFound)
}

func TestExecute_StoreFailureIsRetryable(t *testing.T) {
	h := NewHandler(LoadConfig(), failingStore{err: stderrors.New("connection refused")}, logger.NewNoOpLogger())

	tests := []struct {
		name  string
		input *Input
	}{
		{"save", &Input{Action: ActionSave, Draft: json.RawMessage(draftPayload)}},
		{"load", &Input{Action: ActionLoad, DraftID: "d-1"}},
		{"list", &Input{Action: ActionList}},
		{"delete", &Input{Action: ActionDelete, DraftID: "d-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Execute(context.Background(), tt.input)
			requireStdCode(t, err, errors.ErrCodeDraftStoreFailed)
			var std *errors.StandardError
			require.True(t, stderrors.As(err, &std))
			assert.True(t, std.Retryable)
		})
	}
}

// ==========================
// Handle
// ==========================

func TestHandle_CompletesSave(t *testing.T) {
	h, _ := newTestHandler(t)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.RawJob(1, TaskType,
		`{"action":"save","vendorId":"v-1","draft":`+draftPayload+`}`))

	vars := client.CompletedVariables(t)
	assert.Equal(t, "save", vars["action"])
	assert.NotEmpty(t, vars["draftId"])
}

func TestHandle_UnsupportedAction(t *testing.T) {
	h, _ := newTestHandler(t)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.RawJob(2, TaskType, `{"action":"publish"}`))

	req, vars := client.ThrownError(t)
	assert.Equal(t, "UNSUPPORTED_DRAFT_ACTION", req.ErrorCode)
	assert.Equal(t, "UNSUPPORTED_DRAFT_ACTION", vars["errorCode"])
}

func TestHandle_LoadWithoutDraftID(t *testing.T) {
	h, _ := newTestHandler(t)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.RawJob(3, TaskType, `{"action":"load"}`))

	req, _ := client.ThrownError(t)
	assert.Equal(t, "INPUT_PARSING_FAILED", req.ErrorCode)
}

func TestHandle_MissingDraftThrows(t *testing.T) {
	h, _ := newTestHandler(t)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.RawJob(4, TaskType, `{"action":"load","draftId":"gone"}`))

	req, _ := client.ThrownError(t)
	assert.Equal(t, "DRAFT_NOT_FOUND", req.ErrorCode)
}
