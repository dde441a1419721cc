// Package notify sends post-submission confirmations. Delivery is
// best-effort: a failed confirmation never fails the submission it follows.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"daystar-admissions/internal/common/config"
	"daystar-admissions/internal/common/errors"
	"daystar-admissions/internal/common/logger"
	"daystar-admissions/internal/common/metrics"
)

// Confirmation carries the details needed to confirm a received application.
type Confirmation struct {
	FirstName     string
	Email         string
	PhoneNumber   string
	ProgrammeName string
}

// Sender delivers confirmations after an application is persisted.
type Sender interface {
	SendConfirmation(ctx context.Context, c Confirmation)
}

// EmailAPI is the SES surface the service uses.
type EmailAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSAPI is the SNS surface the service uses.
type SMSAPI interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// Service sends email and SMS confirmations per channel configuration.
type Service struct {
	cfg    config.NotificationConfig
	email  EmailAPI
	sms    SMSAPI
	logger logger.Logger
}

func NewService(cfg config.NotificationConfig, email EmailAPI, sms SMSAPI, log logger.Logger) *Service {
	return &Service{
		cfg:    cfg,
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// SendConfirmation delivers the configured confirmations. Errors are logged
// and counted, never returned.
func (s *Service) SendConfirmation(ctx context.Context, c Confirmation) {
	if s.cfg.Email.Enabled && s.email != nil {
		if err := s.sendEmail(ctx, c); err != nil {
			stdErr := errors.NewNotificationSendFailedError("email", err)
			s.logger.Warn("confirmation email failed", map[string]interface{}{
				"error": stdErr,
				"email": c.Email,
			})
			metrics.NotificationsSent.WithLabelValues("email", "failure").Inc()
		} else {
			metrics.NotificationsSent.WithLabelValues("email", "success").Inc()
		}
	}

	if s.cfg.SMS.Enabled && s.sms != nil {
		if err := s.sendSMS(ctx, c); err != nil {
			stdErr := errors.NewNotificationSendFailedError("sms", err)
			s.logger.Warn("confirmation SMS failed", map[string]interface{}{
				"error": stdErr,
				"phone": c.PhoneNumber,
			})
			metrics.NotificationsSent.WithLabelValues("sms", "failure").Inc()
		} else {
			metrics.NotificationsSent.WithLabelValues("sms", "success").Inc()
		}
	}
}

func (s *Service) sendEmail(ctx context.Context, c Confirmation) error {
	subject := "Application received"
	body := fmt.Sprintf(
		"Dear %s,\n\nWe have received your application for %s. "+
			"Our admissions team will be in touch with the next steps.\n\n"+
			"Daystar University Admissions",
		c.FirstName, c.ProgrammeName,
	)

	_, err := s.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(s.cfg.Email.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{c.Email},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (s *Service) sendSMS(ctx context.Context, c Confirmation) error {
	message := fmt.Sprintf(
		"Hi %s, your application for %s has been received. Daystar University.",
		c.FirstName, c.ProgrammeName,
	)

	input := &sns.PublishInput{
		PhoneNumber: aws.String(c.PhoneNumber),
		Message:     aws.String(message),
	}
	if s.cfg.SMS.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(s.cfg.SMS.SenderID),
			},
		}
	}

	_, err := s.sms.Publish(ctx, input)
	return err
}
