package aws

import (
	"context"
	"errors"
	"testing"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSES struct{ mock.Mock }

func (m *mockSES) SendEmail(ctx context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*ses.SendEmailOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSNS struct{ mock.Mock }

func (m *mockSNS) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if out := args.Get(0); out != nil {
		return out.(*sns.PublishOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSESClient_SendText(t *testing.T) {
	api := &mockSES{}
	api.On("SendEmail", mock.Anything, mock.MatchedBy(func(in *ses.SendEmailInput) bool {
		return awssdk.ToString(in.Source) == "vendors@example.com" &&
			in.Destination.ToAddresses[0] == "ops@alredwan.com" &&
			awssdk.ToString(in.Message.Subject.Data) == "Expiring documents"
	})).Return(&ses.SendEmailOutput{MessageId: awssdk.String("msg-1")}, nil)

	id, err := NewSESClientWithAPI(api, "vendors@example.com").SendText(context.Background(), "ops@alredwan.com", "Expiring documents", "body")
	require.NoError(t, err)
	assert.Equal(t, "msg-1", id)
	api.AssertExpectations(t)
}

func TestSNSClient_SendSMS(t *testing.T) {
	api := &mockSNS{}
	api.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		_, hasSender := in.MessageAttributes["AWS.SNS.SMS.SenderID"]
		return awssdk.ToString(in.PhoneNumber) == "+966512345678" && hasSender
	})).Return(&sns.PublishOutput{MessageId: awssdk.String("sms-1")}, nil).Once()
	api.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()

	client := NewSNSClientWithAPI(api, "PROCURE")
	id, err := client.SendSMS(context.Background(), "+966512345678", "hello")
	require.NoError(t, err)
	assert.Equal(t, "sms-1", id)

	_, err = client.SendSMS(context.Background(), "+966512345678", "again")
	assert.ErrorContains(t, err, "throttled")
	assert.False(t, errors.Is(err, ErrRejected))
}

func TestSNSClient_SendSMS_Rejected(t *testing.T) {
	api := &mockSNS{}
	api.On("Publish", mock.Anything, mock.Anything).
		Return(nil, &snstypes.InvalidParameterException{Message: awssdk.String("phone number opted out")})

	_, err := NewSNSClientWithAPI(api, "").SendSMS(context.Background(), "+966512345678", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	var invalid *snstypes.InvalidParameterException
	assert.ErrorAs(t, err, &invalid)
}

func TestSESClient_SendText_Rejected(t *testing.T) {
	api := &mockSES{}
	api.On("SendEmail", mock.Anything, mock.Anything).
		Return(nil, &sestypes.MessageRejected{Message: awssdk.String("address blacklisted")})

	_, err := NewSESClientWithAPI(api, "vendors@example.com").SendText(context.Background(), "ops@alredwan.com", "s", "b")
	assert.ErrorIs(t, err, ErrRejected)
}
