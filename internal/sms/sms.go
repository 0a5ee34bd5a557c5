package sms

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by the noop provider for anything that needs a real provider
var ErrNotConfigured = errors.New("sms: provider not configured")

// Provider sends texts and runs phone verification
type Provider interface {
	// StartVerification texts a one-time code to phone
	StartVerification(ctx context.Context, phone string) error
	// CheckVerification reports whether code is the one sent to phone
	CheckVerification(ctx context.Context, phone, code string) (bool, error)
	// Send texts body to the number and returns the provider's message id
	Send(ctx context.Context, to, body string) (string, error)
	// ValidateWebhook checks the signature on an inbound webhook
	ValidateWebhook(url string, params map[string]string, signature string) bool
	// Configured is false for the noop provider
	Configured() bool
}
