package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daystar-admissions/internal/common/config"
	"daystar-admissions/internal/common/logger"
)

type fakeEmail struct {
	calls  int
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeEmail) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.calls++
	f.inputs = append(f.inputs, input)
	return &ses.SendEmailOutput{}, f.err
}

type fakeSMS struct {
	calls int
	err   error
}

func (f *fakeSMS) Publish(_ context.Context, _ *sns.PublishInput) (*sns.PublishOutput, error) {
	f.calls++
	return &sns.PublishOutput{}, f.err
}

func testConfig(emailEnabled, smsEnabled bool) config.NotificationConfig {
	var cfg config.NotificationConfig
	cfg.Email.Enabled = emailEnabled
	cfg.Email.FromEmail = "admissions@daystar.ac.ke"
	cfg.SMS.Enabled = smsEnabled
	cfg.SMS.SenderID = "DAYSTAR"
	return cfg
}

func testConfirmation() Confirmation {
	return Confirmation{
		FirstName:     "Jane",
		Email:         "jane@x.com",
		PhoneNumber:   "+254712345678",
		ProgrammeName: "Bachelor of Science in Computer Science",
	}
}

func TestSendConfirmation_EmailOnly(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := NewService(testConfig(true, false), email, sms, logger.NewTestLogger(t))

	svc.SendConfirmation(context.Background(), testConfirmation())

	assert.Equal(t, 1, email.calls)
	assert.Zero(t, sms.calls)

	require.Len(t, email.inputs, 1)
	input := email.inputs[0]
	assert.Equal(t, "admissions@daystar.ac.ke", *input.Source)
	assert.Equal(t, []string{"jane@x.com"}, input.Destination.ToAddresses)
	assert.Equal(t, "Application received", *input.Message.Subject.Data)
	assert.Contains(t, *input.Message.Body.Text.Data, "Bachelor of Science in Computer Science")
}

func TestSendConfirmation_BothChannels(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := NewService(testConfig(true, true), email, sms, logger.NewTestLogger(t))

	svc.SendConfirmation(context.Background(), testConfirmation())

	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 1, sms.calls)
}

func TestSendConfirmation_FailuresAreSwallowed(t *testing.T) {
	email := &fakeEmail{err: errors.New("throttled")}
	sms := &fakeSMS{err: errors.New("invalid number")}
	svc := NewService(testConfig(true, true), email, sms, logger.NewTestLogger(t))

	// Must not panic or propagate; both channels are attempted.
	svc.SendConfirmation(context.Background(), testConfirmation())
	assert.Equal(t, 1, email.calls)
	assert.Equal(t, 1, sms.calls)
}

func TestSendConfirmation_DisabledChannelsSkipped(t *testing.T) {
	email := &fakeEmail{}
	sms := &fakeSMS{}
	svc := NewService(testConfig(false, false), email, sms, logger.NewTestLogger(t))

	svc.SendConfirmation(context.Background(), testConfirmation())
	assert.Zero(t, email.calls)
	assert.Zero(t, sms.calls)
}
