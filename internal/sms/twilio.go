package sms

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	"github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	verify "github.com/twilio/twilio-go/rest/verify/v2"
)

const statusApproved = "approved"

type TwilioConfig struct {
	AccountSID       string
	AuthToken        string
	VerifyServiceSID string
	FromNumber       string
	Logger           *logrus.Entry

	// HTTPClient overrides the client used for Twilio requests
	HTTPClient *http.Client
}

// Twilio is the Provider backed by Twilio Verify and the Messages API
type Twilio struct {
	client    *twilio.RestClient
	validator client.RequestValidator
	verifySID string
	from      string
	log       *logrus.Entry
}

func NewTwilio(conf *TwilioConfig) *Twilio {
	log := conf.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	base := &client.Client{
		Credentials: client.NewCredentials(conf.AccountSID, conf.AuthToken),
		HTTPClient:  conf.HTTPClient,
	}
	base.SetAccountSid(conf.AccountSID)

	return &Twilio{
		client:    twilio.NewRestClientWithParams(twilio.ClientParams{Client: base}),
		validator: client.NewRequestValidator(conf.AuthToken),
		verifySID: conf.VerifyServiceSID,
		from:      conf.FromNumber,
		log:       log.WithField("component", "twilio"),
	}
}

func (t *Twilio) Configured() bool {
	return true
}

func (t *Twilio) StartVerification(ctx context.Context, phone string) error {
	params := &verify.CreateVerificationParams{}
	params.SetTo(phone)
	params.SetChannel("sms")

	resp, err := t.client.VerifyV2.CreateVerification(t.verifySID, params)
	if err != nil {
		return fmt.Errorf("sms: start verification: %w", err)
	}
	if resp.Sid != nil {
		t.log.WithField("verification_sid", *resp.Sid).Debug("verification started")
	}
	return nil
}

func (t *Twilio) CheckVerification(ctx context.Context, phone, code string) (bool, error) {
	params := &verify.CreateVerificationCheckParams{}
	params.SetTo(phone)
	params.SetCode(code)

	resp, err := t.client.VerifyV2.CreateVerificationCheck(t.verifySID, params)
	if isNotFound(err) {
		// expired, used up or never started; same answer as a wrong code
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sms: check verification: %w", err)
	}
	return resp.Status != nil && *resp.Status == statusApproved, nil
}

func (t *Twilio) Send(ctx context.Context, to, body string) (string, error) {
	if t.from == "" {
		return "", fmt.Errorf("sms: no from number configured")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.from)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("sms: send: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	return sid, nil
}

func (t *Twilio) ValidateWebhook(url string, params map[string]string, signature string) bool {
	return t.validator.Validate(url, params, signature)
}

func isNotFound(err error) bool {
	var restErr *client.TwilioRestError
	return errors.As(err, &restErr) && restErr.Status == http.StatusNotFound
}
