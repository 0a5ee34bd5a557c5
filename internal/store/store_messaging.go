package store

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"
)

func (s *store) CreateSMS(ctx context.Context, m *SMSMessage) error {
	return s.store.Insert(ctx, m)
}

func (s *store) Conversation(ctx context.Context, phone string, opts *storage.SelectOptions) ([]SMSMessage, error) {
	m := &SMSMessage{
		Phone: phone,
	}

	messages := []SMSMessage{}
	err := s.store.SelectAll(ctx, m, &messages, SMSGetByPhone, opts)
	return messages, err
}

func (s *store) Conversations(ctx context.Context) ([]ConversationSummary, error) {
	convos := []ConversationSummary{}
	if err := sqlx.SelectContext(ctx, s.read, &convos, smsConversations); err != nil {
		return nil, err
	}
	return convos, nil
}

func (s *store) UpsertPushSubscription(ctx context.Context, sub *PushSubscription) error {
	return s.store.Insert(ctx, sub)
}

// DeletePushSubscription is a no-op for an endpoint we don't have
func (s *store) DeletePushSubscription(ctx context.Context, endpoint string) error {
	err := s.store.Delete(ctx, &PushSubscription{Endpoint: endpoint})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (s *store) ListPushSubscriptions(ctx context.Context) ([]PushSubscription, error) {
	subs := []PushSubscription{}
	err := s.store.SelectAll(ctx, &PushSubscription{}, &subs, PushSubscriptionsGetAll, all())
	return subs, err
}

func (s *store) CountPushSubscriptions(ctx context.Context) (int, error) {
	var n int
	err := s.read.GetContext(ctx, &n, "SELECT COUNT(*) FROM push_subscriptions")
	return n, err
}

func (s *store) CreateBroadcast(ctx context.Context, b *PushBroadcast) error {
	return s.store.Insert(ctx, b)
}

func (s *store) ListBroadcasts(ctx context.Context, opts *storage.SelectOptions) ([]PushBroadcast, error) {
	broadcasts := []PushBroadcast{}
	err := s.store.SelectAll(ctx, &PushBroadcast{}, &broadcasts, PushBroadcastsList, opts)
	return broadcasts, err
}

func (s *store) CreateNotification(ctx context.Context, n *Notification) error {
	return s.store.Insert(ctx, n)
}

func (s *store) ListNotifications(ctx context.Context, f *NotificationFilter, opts *storage.SelectOptions) ([]Notification, error) {
	if f == nil {
		f = &NotificationFilter{}
	}
	notifications := []Notification{}
	err := s.store.SelectAll(ctx, f, &notifications, NotificationsList, opts)
	return notifications, err
}

func (s *store) MarkNotificationRead(ctx context.Context, id int64) (*Notification, error) {
	n := &Notification{
		NotificationID: id,
	}
	if err := s.store.Select(ctx, n, NotificationsGetByID); err != nil {
		return nil, err
	}
	if n.Read {
		return n, nil
	}

	n.Read = true
	return n, s.store.Update(ctx, n)
}

// MarkAllNotificationsRead returns how many were unread
func (s *store) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	marked := []Notification{}
	if err := sqlx.SelectContext(ctx, s.write, &marked, notificationsMarkAllRead); err != nil {
		return 0, err
	}

	objs := make([]interface{}, 0, len(marked))
	for idx := range marked {
		objs = append(objs, &marked[idx])
	}
	if err := s.store.DeleteKeys(ctx, objs...); err != nil {
		s.log.WithError(err).Warn("drop read notification keys")
	}
	return len(marked), nil
}
