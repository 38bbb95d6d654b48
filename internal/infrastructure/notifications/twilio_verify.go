package notifications

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
	"github.com/you/homeauth/domain"
)

// StatusApproved is the Verify status of an accepted code
const StatusApproved = "approved"

// verifyAPI is the part of the Twilio Verify v2 API used here
type verifyAPI interface {
	CreateVerification(serviceSid string, params *verify.CreateVerificationParams) (*verify.VerifyV2Verification, error)
	CreateVerificationCheck(serviceSid string, params *verify.CreateVerificationCheckParams) (*verify.VerifyV2VerificationCheck, error)
}

// TwilioVerifyProvider implements domain.VerificationProvider on Twilio Verify
type TwilioVerifyProvider struct {
	api        verifyAPI
	serviceSID string
}

// NewTwilioVerifyProvider creates the provider; it is disabled unless all three credentials are set
func NewTwilioVerifyProvider(accountSID, authToken, serviceSID string) domain.VerificationProvider {
	p := &TwilioVerifyProvider{serviceSID: serviceSID}
	if accountSID != "" && authToken != "" && serviceSID != "" {
		client := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
		p.api = client.VerifyV2
	}
	return p
}

// Enabled implements domain.VerificationProvider
func (p *TwilioVerifyProvider) Enabled() bool {
	return p.api != nil
}

// SendVerification implements domain.VerificationProvider
func (p *TwilioVerifyProvider) SendVerification(ctx context.Context, phone string) (string, error) {
	if !p.Enabled() {
		return "", domain.ErrProviderDisabled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel("sms")

	resp, err := p.api.CreateVerification(p.serviceSID, params)
	if err != nil {
		return "", fmt.Errorf("twilio verify send: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return status(resp.Status), nil
}

// CheckVerification implements domain.VerificationProvider
func (p *TwilioVerifyProvider) CheckVerification(ctx context.Context, phone, code string) (string, error) {
	if !p.Enabled() {
		return "", domain.ErrProviderDisabled
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	resp, err := p.api.CreateVerificationCheck(p.serviceSID, params)
	if err != nil {
		return "", fmt.Errorf("twilio verify check: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return status(resp.Status), nil
}

func status(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
