package sms

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Noop logs outbound texts instead of sending them; verification always fails closed
type Noop struct {
	log *logrus.Entry
}

func NewNoop(log *logrus.Entry) *Noop {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Noop{log: log.WithField("component", "sms-noop")}
}

func (n *Noop) Configured() bool {
	return false
}

func (n *Noop) StartVerification(ctx context.Context, phone string) error {
	return ErrNotConfigured
}

func (n *Noop) CheckVerification(ctx context.Context, phone, code string) (bool, error) {
	return false, ErrNotConfigured
}

func (n *Noop) Send(ctx context.Context, to, body string) (string, error) {
	sid := "noop-" + uuid.NewString()
	n.log.WithFields(logrus.Fields{"to": to, "sid": sid}).Info("sms not sent; provider not configured")
	return sid, nil
}

func (n *Noop) ValidateWebhook(url string, params map[string]string, signature string) bool {
	return false
}
