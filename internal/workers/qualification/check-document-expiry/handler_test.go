package checkdocumentexpiry

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	commonaws "procurement-workers/internal/common/aws"
	"procurement-workers/internal/common/camunda/camundatest"
	"procurement-workers/internal/common/errors"
	"procurement-workers/internal/common/logger"
	"procurement-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type mockEmail struct{ mock.Mock }

func (m *mockEmail) SendText(ctx context.Context, to, subject, body string) (string, error) {
	args := m.Called(ctx, to, subject, body)
	return args.String(0), args.Error(1)
}

type mockSMS struct{ mock.Mock }

func (m *mockSMS) SendSMS(ctx context.Context, phone, message string) (string, error) {
	args := m.Called(ctx, phone, message)
	return args.String(0), args.Error(1)
}

var fixedNow = time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, email EmailSender, sms SMSSender) *Handler {
	t.Helper()
	cfg := LoadConfig()
	cfg.Location = time.UTC
	return NewHandler(cfg, email, sms, logger.NewTestLogger(t)).WithClock(func() time.Time { return fixedNow })
}

func testInput() *Input {
	return &Input{
		VendorID:  "v-9",
		LegalName: "Gulf Steel",
		Contact:   Contact{Email: "ops@gulfsteel.sa", Phone: "0551234567"},
		Documents: map[string]models.DocumentEntry{
			"COMMERCIAL_REGISTRATION": {FileRef: "f1", Number: "1010", ExpiryDate: "2025-03-09"},
			"ZAKAT_CERTIFICATE":       {FileRef: "f2", Number: "22", ExpiryDate: "2025-03-10"},
			"GOSI_CERTIFICATE":        {FileRef: "f3", Number: "33", ExpiryDate: "2025-04-09"},
			"ISO_CERTIFICATE":         {FileRef: "f4", Number: "44", ExpiryDate: "2026-01-01"},
			"BANK_LETTER":             {FileRef: "f5", ExpiryDate: "2020-01-01"},
			"VAT_CERTIFICATE":         {FileRef: "f6", Number: "55"},
		},
	}
}

// ==========================
// Scan
// ==========================

func TestExecute_ClassifiesDocuments(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	out, err := h.Execute(context.Background(), testInput())
	require.NoError(t, err)

	require.Len(t, out.Expired, 1)
	assert.Equal(t, "COMMERCIAL_REGISTRATION", out.Expired[0].Key)
	assert.Equal(t, -1, out.Expired[0].DaysRemaining)
	assert.True(t, out.HasExpired)

	// today and today+30 are both inside the warning window
	require.Len(t, out.ExpiringSoon, 2)
	assert.Equal(t, "GOSI_CERTIFICATE", out.ExpiringSoon[0].Key)
	assert.Equal(t, 30, out.ExpiringSoon[0].DaysRemaining)
	assert.Equal(t, "ZAKAT_CERTIFICATE", out.ExpiringSoon[1].Key)
	assert.Equal(t, 0, out.ExpiringSoon[1].DaysRemaining)

	assert.Empty(t, out.Notifications)
}

func TestExecute_IgnoresDocumentsWithoutExpiry(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	out, err := h.Execute(context.Background(), &Input{
		VendorID: "v-9",
		Documents: map[string]models.DocumentEntry{
			"BANK_LETTER":     {FileRef: "f", ExpiryDate: "2001-01-01"},
			"COMPANY_PROFILE": {FileRef: "f", ExpiryDate: "2001-01-01"},
			"UNKNOWN_DOC":     {FileRef: "f", ExpiryDate: "2001-01-01"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Expired)
	assert.Empty(t, out.ExpiringSoon)
	assert.False(t, out.HasExpired)
}

func TestExecute_ReportsUnparsableDates(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	out, err := h.Execute(context.Background(), &Input{
		VendorID: "v-9",
		Documents: map[string]models.DocumentEntry{
			"ISO_CERTIFICATE": {FileRef: "f", ExpiryDate: "next spring"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ISO_CERTIFICATE"}, out.InvalidDates)
}

func TestExecute_MissingVendorID(t *testing.T) {
	h := newTestHandler(t, nil, nil)

	_, err := h.Execute(context.Background(), &Input{})
	var std *errors.StandardError
	require.True(t, stderrors.As(err, &std))
	assert.Equal(t, errors.ErrCodeInputParsingFailed, std.Code)
}

// ==========================
// Notifications
// ==========================

func TestExecute_NotifiesByEmailAndSMS(t *testing.T) {
	email := &mockEmail{}
	sms := &mockSMS{}
	email.On("SendText", mock.Anything, "ops@gulfsteel.sa", mock.MatchedBy(func(s string) bool {
		return s == "Qualification documents require attention: Gulf Steel"
	}), mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "Commercial Registration (CR)") &&
			strings.Contains(body, "GOSI Certificate") &&
			strings.Contains(body, "30 day(s) left")
	})).Return("ses-1", nil)
	sms.On("SendSMS", mock.Anything, "+966551234567", mock.AnythingOfType("string")).Return("sns-1", nil)

	h := newTestHandler(t, email, sms)
	out, err := h.Execute(context.Background(), testInput())
	require.NoError(t, err)

	require.Len(t, out.Notifications, 2)
	assert.Equal(t, Notification{Channel: ChannelEmail, Recipient: "ops@gulfsteel.sa", Status: StatusSent, MessageID: "ses-1"}, out.Notifications[0])
	assert.Equal(t, Notification{Channel: ChannelSMS, Recipient: "+966551234567", Status: StatusSent, MessageID: "sns-1"}, out.Notifications[1])
	email.AssertExpectations(t)
	sms.AssertExpectations(t)
}

func TestExecute_NothingToReportSendsNothing(t *testing.T) {
	email := &mockEmail{}
	h := newTestHandler(t, email, nil)

	out, err := h.Execute(context.Background(), &Input{
		VendorID: "v-9",
		Contact:  Contact{Email: "ops@gulfsteel.sa"},
		Documents: map[string]models.DocumentEntry{
			"ISO_CERTIFICATE": {FileRef: "f", ExpiryDate: "2027-01-01"},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Notifications)
	email.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_NotifyFalseSuppressesSending(t *testing.T) {
	email := &mockEmail{}
	h := newTestHandler(t, email, nil)

	in := testInput()
	off := false
	in.Notify = &off

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.HasExpired)
	email.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_DisabledChannel(t *testing.T) {
	sms := &mockSMS{}
	cfg := LoadConfig()
	cfg.Location = time.UTC
	cfg.SMSEnabled = false
	h := NewHandler(cfg, nil, sms, logger.NewNoOpLogger()).WithClock(func() time.Time { return fixedNow })

	_, err := h.Execute(context.Background(), testInput())
	require.NoError(t, err)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_SkipsNonSaudiPhone(t *testing.T) {
	sms := &mockSMS{}
	h := newTestHandler(t, nil, sms)

	in := testInput()
	in.Contact.Phone = "+44 20 7946 0958"

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Empty(t, out.Notifications)
	sms.AssertNotCalled(t, "SendSMS", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_SendFailureIsRetryable(t *testing.T) {
	email := &mockEmail{}
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", stderrors.New("throttled"))

	h := newTestHandler(t, email, nil)
	_, err := h.Execute(context.Background(), testInput())

	var std *errors.StandardError
	require.True(t, stderrors.As(err, &std))
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, std.Code)
	assert.True(t, std.Retryable)
}

// ==========================
// Handle
// ==========================

func TestHandle_Completes(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.Job(t, 1, TaskType, testInput()))

	vars := client.CompletedVariables(t)
	assert.Equal(t, "v-9", vars["vendorId"])
	assert.Equal(t, true, vars["hasExpired"])
}

func TestHandle_SendFailureFailsJob(t *testing.T) {
	email := &mockEmail{}
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", stderrors.New("throttled"))
	h := newTestHandler(t, email, nil)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.Job(t, 2, TaskType, testInput()))

	require.Len(t, client.Failed(), 1)
	assert.Empty(t, client.Completed())
}

func TestHandle_BadVariables(t *testing.T) {
	h := newTestHandler(t, nil, nil)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.RawJob(3, TaskType, `{"documents": 7}`))

	req, _ := client.ThrownError(t)
	assert.Equal(t, "INPUT_PARSING_FAILED", req.ErrorCode)
}

func TestExecute_SMSFailureAfterEmailStillCompletes(t *testing.T) {
	email := &mockEmail{}
	sms := &mockSMS{}
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-1", nil)
	sms.On("SendSMS", mock.Anything, "+966551234567", mock.Anything).Return("", stderrors.New("opted out"))

	h := newTestHandler(t, email, sms)
	out, err := h.Execute(context.Background(), testInput())

	require.NoError(t, err)
	require.Len(t, out.Notifications, 2)
	assert.Equal(t, StatusSent, out.Notifications[0].Status)
	assert.Equal(t, "ses-1", out.Notifications[0].MessageID)
	assert.Equal(t, ChannelSMS, out.Notifications[1].Channel)
	assert.Equal(t, StatusFailed, out.Notifications[1].Status)
	assert.Equal(t, "opted out", out.Notifications[1].Error)
}

func TestHandle_SMSFailureDoesNotResendEmail(t *testing.T) {
	email := &mockEmail{}
	sms := &mockSMS{}
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("ses-1", nil)
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))
	h := newTestHandler(t, email, sms)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.Job(t, 4, TaskType, testInput()))

	assert.Empty(t, client.Failed())
	vars := client.CompletedVariables(t)
	notes, ok := vars["notifications"].([]interface{})
	require.True(t, ok)
	require.Len(t, notes, 2)
	assert.Equal(t, "sent", notes[0].(map[string]interface{})["status"])
	smsNote := notes[1].(map[string]interface{})
	assert.Equal(t, "failed", smsNote["status"])
	assert.Equal(t, "throttled", smsNote["error"])
	email.AssertNumberOfCalls(t, "SendText", 1)
}

func TestExecute_AllChannelsFailedIsRetryable(t *testing.T) {
	email := &mockEmail{}
	sms := &mockSMS{}
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))

	h := newTestHandler(t, email, sms)
	_, err := h.Execute(context.Background(), testInput())

	var std *errors.StandardError
	require.True(t, stderrors.As(err, &std))
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, std.Code)
	assert.True(t, std.Retryable)
	assert.Contains(t, std.Details, "email")
	assert.Contains(t, std.Details, "sms")
}

func TestHandle_RejectedEverywhereThrows(t *testing.T) {
	rejected := fmt.Errorf("sns publish: %w: opted out", commonaws.ErrRejected)
	email := &mockEmail{}
	sms := &mockSMS{}
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("ses send email: %w: address blacklisted", commonaws.ErrRejected))
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("", rejected)
	h := newTestHandler(t, email, sms)
	client := camundatest.NewJobClient()

	h.Handle(client, camundatest.Job(t, 5, TaskType, testInput()))

	assert.Empty(t, client.Failed())
	req, _ := client.ThrownError(t)
	assert.Equal(t, "NOTIFICATION_REJECTED", req.ErrorCode)
}

func TestExecute_MixedRejectionStaysRetryable(t *testing.T) {
	email := &mockEmail{}
	sms := &mockSMS{}
	email.On("SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", stderrors.New("throttled"))
	sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).
		Return("", fmt.Errorf("sns publish: %w", commonaws.ErrRejected))

	h := newTestHandler(t, email, sms)
	_, err := h.Execute(context.Background(), testInput())

	var std *errors.StandardError
	require.True(t, stderrors.As(err, &std))
	assert.Equal(t, errors.ErrCodeNotificationSendFailed, std.Code)
}
