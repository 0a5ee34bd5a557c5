package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/push"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/validation"
	"github.com/sirupsen/logrus"
)

const (
	smsStatusSent     = "sent"
	smsStatusFailed   = "failed"
	smsStatusReceived = "received"
)

// InboundSMS is a text posted to the webhook by the provider
type InboundSMS struct {
	From string
	Body string
	SID  string
}

func (s *Service) Conversations(ctx context.Context) ([]store.ConversationSummary, error) {
	return s.store.Conversations(ctx)
}

func (s *Service) Conversation(ctx context.Context, phone string, page Page) ([]store.SMSMessage, error) {
	p, err := validation.NormalizePhone(phone)
	if err != nil {
		return nil, validation.FieldError("phone", "must be a valid phone number")
	}
	return s.store.Conversation(ctx, p, page.options())
}

// SendSMS texts a customer from the back office; the message is kept even when the provider refuses it
func (s *Service) SendSMS(ctx context.Context, req SendSMSRequest, actor *int64) (*store.SMSMessage, error) {
	if s.sms == nil || !s.sms.Configured() {
		return nil, ErrUnavailable
	}
	phone, err := validation.NormalizePhone(req.Phone)
	if err != nil {
		return nil, validation.FieldError("phone", "must be a valid phone number")
	}

	m := &store.SMSMessage{
		Phone:     phone,
		Direction: store.DirectionOutbound,
		Body:      req.Body,
		Status:    smsStatusSent,
		UserID:    actor,
	}

	sid, sendErr := s.sms.Send(ctx, phone, req.Body)
	if sendErr != nil {
		m.Status = smsStatusFailed
	}
	m.ProviderSID = sid

	if err := s.store.CreateSMS(ctx, m); err != nil {
		return nil, errors.Join(sendErr, err)
	}
	if sendErr != nil {
		return nil, sendErr
	}

	s.linkToLead(ctx, phone, "text sent: "+truncate(req.Body, 200), actor)
	return m, nil
}

// ValidSMSWebhook checks the provider's signature when webhook validation is on
func (s *Service) ValidSMSWebhook(url string, params map[string]string, signature string) bool {
	if !s.webhookConfigured {
		return true
	}
	return s.sms != nil && s.sms.ValidateWebhook(url, params, signature)
}

// ReceiveSMS stores an inbound text, flags it in the inbox and on the sender's latest lead
func (s *Service) ReceiveSMS(ctx context.Context, in InboundSMS) (*store.SMSMessage, error) {
	phone, err := validation.NormalizePhone(in.From)
	if err != nil {
		return nil, validation.FieldError("From", "must be a valid phone number")
	}

	m := &store.SMSMessage{
		Phone:       phone,
		Direction:   store.DirectionInbound,
		Body:        in.Body,
		ProviderSID: in.SID,
		Status:      smsStatusReceived,
	}
	if err := s.store.CreateSMS(ctx, m); err != nil {
		return nil, err
	}

	title := "New text from " + phone
	if lead := s.linkToLead(ctx, phone, "text received: "+truncate(in.Body, 200), nil); lead != nil {
		title = "New text from " + lead.Name
	}
	s.notify(ctx, &store.Notification{
		Kind:  store.NotificationSMS,
		Title: title,
		Body:  truncate(in.Body, 200),
		Link:  "/admin/sms/" + phone,
	})
	return m, nil
}

// linkToLead records an sms activity on the phone's most recent lead, if it has one
func (s *Service) linkToLead(ctx context.Context, phone, body string, actor *int64) *store.Inquiry {
	lead, err := s.store.LatestInquiryByPhone(ctx, phone)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.WithError(err).Warn("find lead for phone")
		}
		return nil
	}
	s.activity(ctx, lead.InquiryID, store.ActivitySMS, body, actor)
	return lead
}

// sendSystemSMS is an automated text (confirmations, status updates); skipped when no provider is set up
func (s *Service) sendSystemSMS(ctx context.Context, phone, body string) error {
	if s.sms == nil || !s.sms.Configured() {
		s.log.WithField("phone", phone).Debug("sms provider not configured; skipping text")
		return nil
	}

	sid, err := s.sms.Send(ctx, phone, body)
	m := &store.SMSMessage{
		Phone:       phone,
		Direction:   store.DirectionOutbound,
		Body:        body,
		ProviderSID: sid,
		Status:      smsStatusSent,
	}
	if err != nil {
		m.Status = smsStatusFailed
	}
	if serr := s.store.CreateSMS(ctx, m); serr != nil {
		return errors.Join(err, serr)
	}
	return err
}

// BroadcastPush sends to every subscriber, drops the ones the push service says are gone and records the counts
func (s *Service) BroadcastPush(ctx context.Context, req BroadcastRequest, actor *int64) (*store.PushBroadcast, error) {
	if s.push == nil || !s.push.Configured() {
		return nil, ErrUnavailable
	}

	subs, err := s.store.ListPushSubscriptions(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.push.Broadcast(ctx, subs, push.Payload{
		Title: req.Title,
		Body:  req.Body,
		URL:   req.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("broadcast: %w", err)
	}

	removed := 0
	for _, endpoint := range res.Expired {
		if err := s.store.DeletePushSubscription(ctx, endpoint); err != nil {
			s.log.WithError(err).Warn("delete expired push subscription")
			continue
		}
		removed++
	}

	b := &store.PushBroadcast{
		Title:        req.Title,
		Body:         req.Body,
		URL:          req.URL,
		SentCount:    res.Sent,
		FailedCount:  res.Failed,
		RemovedCount: removed,
		CreatedBy:    actor,
	}
	if err := s.store.CreateBroadcast(ctx, b); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"broadcast_id": b.BroadcastID,
		"sent":         res.Sent,
		"failed":       res.Failed,
		"removed":      removed,
	}).Info("push broadcast")
	return b, nil
}

func (s *Service) PushHistory(ctx context.Context, page Page) ([]store.PushBroadcast, error) {
	return s.store.ListBroadcasts(ctx, page.options())
}

func (s *Service) PushSubscriberCount(ctx context.Context) (int, error) {
	return s.store.CountPushSubscriptions(ctx)
}

func (s *Service) Notifications(ctx context.Context, unreadOnly bool, page Page) ([]store.Notification, error) {
	return s.store.ListNotifications(ctx, &store.NotificationFilter{UnreadOnly: unreadOnly}, page.options())
}

func (s *Service) MarkNotificationRead(ctx context.Context, id int64) (*store.Notification, error) {
	return s.store.MarkNotificationRead(ctx, id)
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	return s.store.MarkAllNotificationsRead(ctx)
}

// notify puts an entry in the admin inbox; it never fails the request that caused it
func (s *Service) notify(ctx context.Context, n *store.Notification) {
	if err := s.store.CreateNotification(ctx, n); err != nil {
		s.log.WithError(err).WithField("kind", n.Kind).Warn("create notification")
	}
}
