package store

import "github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"

var smsGetByID = &storage.Query{
	Name:     SMSGetByID,
	CacheKey: "message_id=%v",

	Query: "select * from sms_messages where message_id=:message_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

// a conversation reads top to bottom
var smsGetByPhone = &storage.Query{
	Name:                    SMSGetByPhone,
	CacheKey:                "phone=%v",
	CachePrimaryQueryStored: SMSGetByID,

	Query: "select * from sms_messages where phone=:phone order by created_at, message_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheRPush,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheRPush,
}

const smsInsert = `INSERT INTO sms_messages (phone, direction, body, provider_sid, status, user_id)
VALUES
(:phone, :direction, :body, :provider_sid, :status, :user_id) RETURNING *`

const smsConversations = `SELECT DISTINCT ON (m.phone)
	m.phone AS phone,
	m.body AS last_body,
	m.direction AS last_direction,
	m.created_at AS last_at,
	c.message_count AS message_count,
	c.inbound_count AS inbound_count,
	COALESCE((SELECT i.name FROM inquiries i WHERE i.phone = m.phone ORDER BY i.created_at DESC LIMIT 1), '') AS lead_name
FROM sms_messages m
JOIN (
	SELECT phone, COUNT(*) AS message_count, COUNT(*) FILTER (WHERE direction = 'inbound') AS inbound_count
	FROM sms_messages GROUP BY phone
) c ON c.phone = m.phone
ORDER BY m.phone, m.created_at DESC, m.message_id DESC`

var pushSubscriptionsGetByID = &storage.Query{
	Name:     PushSubscriptionsGetByID,
	CacheKey: "subscription_id=%v",

	Query: "select * from push_subscriptions where subscription_id=:subscription_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

var pushSubscriptionsGetAll = &storage.Query{
	Name: PushSubscriptionsGetAll,

	Query: "select * from push_subscriptions order by subscription_id",

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

// the same browser subscribing again refreshes its keys
const pushSubscriptionsUpsert = `INSERT INTO push_subscriptions (endpoint, p256dh, auth, user_agent)
VALUES
(:endpoint, :p256dh, :auth, :user_agent)
ON CONFLICT (endpoint) DO UPDATE SET p256dh=EXCLUDED.p256dh, auth=EXCLUDED.auth, user_agent=EXCLUDED.user_agent
RETURNING *`

const pushSubscriptionsDelete = `DELETE FROM push_subscriptions WHERE endpoint=:endpoint RETURNING *`

var pushBroadcastsGetByID = &storage.Query{
	Name:     PushBroadcastsGetByID,
	CacheKey: "broadcast_id=%v",

	Query: "select * from push_broadcasts where broadcast_id=:broadcast_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

var pushBroadcastsList = &storage.Query{
	Name: PushBroadcastsList,

	Query: "select * from push_broadcasts order by created_at desc, broadcast_id desc",

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

const pushBroadcastsInsert = `INSERT INTO push_broadcasts (title, body, url, sent_count, failed_count, removed_count, created_by)
VALUES
(:title, :body, :url, :sent_count, :failed_count, :removed_count, :created_by) RETURNING *`

var notificationsGetByID = &storage.Query{
	Name:     NotificationsGetByID,
	CacheKey: "notification_id=%v",

	Query: "select * from notifications where notification_id=:notification_id",

	CacheTTL: DefaultTTL,

	InsertAction: storage.CacheSet,
	UpdateAction: storage.CacheSet,
	SelectAction: storage.CacheSet,
}

var notificationsList = &storage.Query{
	Name:   NotificationsList,
	Params: NotificationFilter{},

	Query: `select * from notifications
where (:unread_only = false OR NOT read)
order by created_at desc, notification_id desc`,

	InsertAction: storage.CacheNoAction,
	UpdateAction: storage.CacheNoAction,
	SelectAction: storage.CacheNoAction,
}

const notificationsInsert = `INSERT INTO notifications (kind, title, body, link, read)
VALUES
(:kind, :title, :body, :link, :read) RETURNING *`

const notificationsUpdate = `UPDATE notifications SET read=:read WHERE notification_id=:notification_id RETURNING *`

const notificationsMarkAllRead = `UPDATE notifications SET read=true WHERE NOT read RETURNING *`
