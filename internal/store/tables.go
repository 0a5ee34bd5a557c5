package store

import "github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"

const serviceName = "acme"

// define all the query names we will use
/*
	It's standard to have the query used to fetch by
	the primary key be called {Table}GetByID
*/
const (
	UsersGetByID    = "UsersGetByID"
	UsersGetByEmail = "UsersGetByEmail"
	UsersGetAll     = "UsersGetAll"

	VehiclesGetByID = "VehiclesGetByID"
	VehiclesList    = "VehiclesList"

	ConsignmentsGetByID         = "ConsignmentsGetByID"
	ConsignmentsGetByOwnerPhone = "ConsignmentsGetByOwnerPhone"
	ConsignmentsList            = "ConsignmentsList"

	DocumentsGetByID            = "DocumentsGetByID"
	DocumentsGetByConsignmentID = "DocumentsGetByConsignmentID"

	InquiriesGetByID          = "InquiriesGetByID"
	InquiriesList             = "InquiriesList"
	InquiriesBoard            = "InquiriesBoard"
	InquiriesGetLatestByPhone = "InquiriesGetLatestByPhone"

	CreditApplicationsGetByID        = "CreditApplicationsGetByID"
	CreditApplicationsGetByInquiryID = "CreditApplicationsGetByInquiryID"

	ActivitiesGetByID        = "ActivitiesGetByID"
	ActivitiesGetByInquiryID = "ActivitiesGetByInquiryID"

	SMSGetByID    = "SMSGetByID"
	SMSGetByPhone = "SMSGetByPhone"

	PushSubscriptionsGetByID = "PushSubscriptionsGetByID"
	PushSubscriptionsGetAll  = "PushSubscriptionsGetAll"

	PushBroadcastsGetByID = "PushBroadcastsGetByID"
	PushBroadcastsList    = "PushBroadcastsList"

	NotificationsGetByID = "NotificationsGetByID"
	NotificationsList    = "NotificationsList"

	SettingsGetByKey = "SettingsGetByKey"
	SettingsGetAll   = "SettingsGetAll"
)

const (
	DefaultTTL = (3600 * 24 * 7) // 7 days
)

var usersTable = &storage.Table{
	Struct:           User{},
	Name:             "users",
	PrimaryQueryName: UsersGetByID,
	PrimaryKeyField:  "user_id",
	InsertQuery:      usersInsert,
	UpdateQuery:      usersUpdate,
	Queries: []*storage.Query{
		usersGetByID,
		usersGetByEmail,
		usersGetAll,
	},
}

var vehiclesTable = &storage.Table{
	Struct:           Vehicle{},
	Name:             "vehicles",
	PrimaryQueryName: VehiclesGetByID,
	PrimaryKeyField:  "vehicle_id",
	InsertQuery:      vehiclesInsert,
	UpdateQuery:      vehiclesUpdate,
	DeleteQuery:      vehiclesDelete,
	Queries: []*storage.Query{
		vehiclesGetByID,
		vehiclesList,
	},
}

var consignmentsTable = &storage.Table{
	Struct:           Consignment{},
	Name:             "consignments",
	PrimaryQueryName: ConsignmentsGetByID,
	PrimaryKeyField:  "consignment_id",
	InsertQuery:      consignmentsInsert,
	UpdateQuery:      consignmentsUpdate,
	Queries: []*storage.Query{
		consignmentsGetByID,
		consignmentsGetByOwnerPhone,
		consignmentsList,
	},
}

var documentsTable = &storage.Table{
	Struct:           ConsignmentDocument{},
	Name:             "consignment_documents",
	PrimaryQueryName: DocumentsGetByID,
	PrimaryKeyField:  "document_id",
	InsertQuery:      documentsInsert,
	DeleteQuery:      documentsDelete,
	Queries: []*storage.Query{
		documentsGetByID,
		documentsGetByConsignmentID,
	},
}

var inquiriesTable = &storage.Table{
	Struct:           Inquiry{},
	Name:             "inquiries",
	PrimaryQueryName: InquiriesGetByID,
	PrimaryKeyField:  "inquiry_id",
	InsertQuery:      inquiriesInsert,
	UpdateQuery:      inquiriesUpdate,
	Queries: []*storage.Query{
		inquiriesGetByID,
		inquiriesList,
		inquiriesBoard,
		inquiriesGetLatestByPhone,
	},
}

var creditApplicationsTable = &storage.Table{
	Struct:           CreditApplication{},
	Name:             "credit_applications",
	PrimaryQueryName: CreditApplicationsGetByID,
	PrimaryKeyField:  "credit_application_id",
	InsertQuery:      creditApplicationsInsert,
	Queries: []*storage.Query{
		creditApplicationsGetByID,
		creditApplicationsGetByInquiryID,
	},
}

var activitiesTable = &storage.Table{
	Struct:           LeadActivity{},
	Name:             "lead_activities",
	PrimaryQueryName: ActivitiesGetByID,
	PrimaryKeyField:  "activity_id",
	InsertQuery:      activitiesInsert,
	Queries: []*storage.Query{
		activitiesGetByID,
		activitiesGetByInquiryID,
	},
}

var smsTable = &storage.Table{
	Struct:           SMSMessage{},
	Name:             "sms_messages",
	PrimaryQueryName: SMSGetByID,
	PrimaryKeyField:  "message_id",
	InsertQuery:      smsInsert,
	Queries: []*storage.Query{
		smsGetByID,
		smsGetByPhone,
	},
}

var pushSubscriptionsTable = &storage.Table{
	Struct:           PushSubscription{},
	Name:             "push_subscriptions",
	PrimaryQueryName: PushSubscriptionsGetByID,
	PrimaryKeyField:  "subscription_id",
	InsertQuery:      pushSubscriptionsUpsert,
	DeleteQuery:      pushSubscriptionsDelete,
	Queries: []*storage.Query{
		pushSubscriptionsGetByID,
		pushSubscriptionsGetAll,
	},
}

var pushBroadcastsTable = &storage.Table{
	Struct:           PushBroadcast{},
	Name:             "push_broadcasts",
	PrimaryQueryName: PushBroadcastsGetByID,
	PrimaryKeyField:  "broadcast_id",
	InsertQuery:      pushBroadcastsInsert,
	Queries: []*storage.Query{
		pushBroadcastsGetByID,
		pushBroadcastsList,
	},
}

var notificationsTable = &storage.Table{
	Struct:           Notification{},
	Name:             "notifications",
	PrimaryQueryName: NotificationsGetByID,
	PrimaryKeyField:  "notification_id",
	InsertQuery:      notificationsInsert,
	UpdateQuery:      notificationsUpdate,
	Queries: []*storage.Query{
		notificationsGetByID,
		notificationsList,
	},
}

var settingsTable = &storage.Table{
	Struct:           Setting{},
	Name:             "site_settings",
	PrimaryQueryName: SettingsGetByKey,
	PrimaryKeyField:  "key",
	InsertQuery:      settingsUpsert,
	Queries: []*storage.Query{
		settingsGetByKey,
		settingsGetAll,
	},
}

// Tables is every table the store registers with storage
func Tables() []*storage.Table {
	return []*storage.Table{
		usersTable,
		vehiclesTable,
		consignmentsTable,
		documentsTable,
		inquiriesTable,
		creditApplicationsTable,
		activitiesTable,
		smsTable,
		pushSubscriptionsTable,
		pushBroadcastsTable,
		notificationsTable,
		settingsTable,
	}
}
