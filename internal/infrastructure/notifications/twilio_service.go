package notifications

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"github.com/you/homeauth/domain"
	"go.uber.org/zap"
)

// messageAPI is the part of the Twilio REST API used for SMS
type messageAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioServiceImpl implements domain.NotificationService
type TwilioServiceImpl struct {
	api        messageAPI
	fromNumber string
	logger     *zap.Logger
}

// NewTwilioService creates a new Twilio notification service.
// Without a sender number messages are logged instead of sent.
func NewTwilioService(accountSID, authToken, fromNumber string, logger *zap.Logger) domain.NotificationService {
	svc := &TwilioServiceImpl{
		fromNumber: fromNumber,
		logger:     logger.Named("sms"),
	}
	if accountSID != "" && authToken != "" {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
		svc.api = client.Api
	}
	return svc
}

// SendSMS implements domain.NotificationService
func (t *TwilioServiceImpl) SendSMS(ctx context.Context, to, message string) error {
	if t.api == nil || t.fromNumber == "" {
		t.logger.Info("twilio not configured, sms not sent",
			zap.String("to", to),
			zap.String("body", message))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.fromNumber)
	params.SetBody(message)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		t.logger.Debug("sms sent", zap.String("sid", *resp.Sid))
	}
	return nil
}

// SendEmail implements domain.NotificationService. No mail transport is wired; the
// message is logged so development setups can follow reset links.
func (t *TwilioServiceImpl) SendEmail(ctx context.Context, to, subject, body string) error {
	t.logger.Info("email transport not configured, email not sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
