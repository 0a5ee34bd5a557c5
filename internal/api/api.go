package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/pipeline"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/ratelimit"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/service"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/sirupsen/logrus"
)

// Service is everything the handlers call; *service.Service implements it
type Service interface {
	// public site
	ListPublicVehicles(ctx context.Context, q service.VehicleQuery, page service.Page) ([]store.Vehicle, error)
	GetPublicVehicle(ctx context.Context, id int64) (*store.Vehicle, error)
	SubmitConsignment(ctx context.Context, req service.ConsignmentRequest) (*store.Consignment, error)
	SubmitInquiry(ctx context.Context, req service.InquiryRequest) (*store.Inquiry, error)
	SubmitCreditApplication(ctx context.Context, req service.CreditApplicationRequest) (*store.Inquiry, error)
	PublicSettings(ctx context.Context) (map[string]string, error)
	ConsignmentTerms(ctx context.Context) pipeline.Terms
	Subscribe(ctx context.Context, req service.SubscribeRequest, userAgent string) (*store.PushSubscription, error)
	Unsubscribe(ctx context.Context, endpoint string) error
	VAPIDPublicKey() (string, error)
	ValidSMSWebhook(url string, params map[string]string, signature string) bool
	ReceiveSMS(ctx context.Context, in service.InboundSMS) (*store.SMSMessage, error)

	// seller portal
	StartSellerVerification(ctx context.Context, req service.VerifyStartRequest) error
	CheckSellerVerification(ctx context.Context, req service.VerifyCheckRequest) (string, error)
	SellerConsignments(ctx context.Context, phone string) ([]service.SellerConsignment, error)
	SellerLogout(ctx context.Context, token string) error

	// admin
	Login(ctx context.Context, req service.LoginRequest) (string, *service.UserView, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, userID int64) (*service.UserView, error)
	ListUsers(ctx context.Context) ([]*service.UserView, error)
	CreateUser(ctx context.Context, req service.UserRequest) (*service.UserView, error)
	UpdateUser(ctx context.Context, id int64, req service.UserUpdate, actor int64) (*service.UserView, error)

	ListVehicles(ctx context.Context, q service.VehicleQuery, page service.Page) ([]store.Vehicle, error)
	GetVehicle(ctx context.Context, id int64) (*store.Vehicle, error)
	CreateVehicle(ctx context.Context, req service.VehicleRequest) (*store.Vehicle, error)
	UpdateVehicle(ctx context.Context, id int64, req service.VehicleRequest) (*store.Vehicle, error)
	ChangeVehicleStatus(ctx context.Context, id int64, req service.VehicleStatusRequest) (*store.Vehicle, error)
	DeleteVehicle(ctx context.Context, id int64) error

	ListConsignments(ctx context.Context, q service.ConsignmentQuery, page service.Page) ([]store.Consignment, error)
	GetConsignment(ctx context.Context, id int64) (*service.ConsignmentDetail, error)
	UpdateConsignment(ctx context.Context, id int64, req service.ConsignmentUpdate) (*store.Consignment, error)
	TransitionConsignment(ctx context.Context, id int64, req service.ConsignmentTransitionRequest) (*service.ConsignmentDetail, error)
	AddDocument(ctx context.Context, consignmentID int64, req service.DocumentRequest) (*store.ConsignmentDocument, error)
	DeleteDocument(ctx context.Context, consignmentID, documentID int64) error

	ListLeads(ctx context.Context, q service.LeadQuery, page service.Page) ([]store.Inquiry, error)
	GetLead(ctx context.Context, id int64) (*service.LeadDetail, error)
	Board(ctx context.Context, kind string) ([]pipeline.Column, error)
	MoveLead(ctx context.Context, id int64, req service.MoveLeadRequest, actor *int64) (*store.Inquiry, error)
	AssignLead(ctx context.Context, id int64, req service.AssignLeadRequest, actor *int64) (*store.Inquiry, error)
	AddLeadNote(ctx context.Context, id int64, req service.NoteRequest, actor *int64) (*store.LeadActivity, error)
	SyncLeadToCRM(ctx context.Context, id int64, actor *int64) (*store.Inquiry, error)

	Conversations(ctx context.Context) ([]store.ConversationSummary, error)
	Conversation(ctx context.Context, phone string, page service.Page) ([]store.SMSMessage, error)
	SendSMS(ctx context.Context, req service.SendSMSRequest, actor *int64) (*store.SMSMessage, error)

	BroadcastPush(ctx context.Context, req service.BroadcastRequest, actor *int64) (*store.PushBroadcast, error)
	PushHistory(ctx context.Context, page service.Page) ([]store.PushBroadcast, error)
	PushSubscriberCount(ctx context.Context) (int, error)

	Notifications(ctx context.Context, unreadOnly bool, page service.Page) ([]store.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) (*store.Notification, error)
	MarkAllNotificationsRead(ctx context.Context) (int, error)

	Settings(ctx context.Context) (map[string]string, error)
	UpdateSettings(ctx context.Context, values map[string]string) (map[string]string, error)

	Dashboard(ctx context.Context) (*store.DashboardStats, error)
	SystemCheck(ctx context.Context) *service.SystemReport
}

type Config struct {
	Service  Service
	Sessions *auth.Manager

	// SMSWebhookURL is the url the provider signs; empty rebuilds it from PublicBaseURL and the request path
	SMSWebhookURL string
	PublicBaseURL string

	TrustProxy           bool
	PublicPostsPerMinute int

	Logger *logrus.Entry
}

type Server struct {
	svc      Service
	sessions *auth.Manager

	webhookURL    string
	publicBaseURL string

	trustProxy bool
	limiter    *ratelimit.Keyed

	log *logrus.Entry
}

func New(conf *Config) *Server {
	log := conf.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	perMinute := conf.PublicPostsPerMinute
	if perMinute < 1 {
		perMinute = 20
	}

	return &Server{
		svc:           conf.Service,
		sessions:      conf.Sessions,
		webhookURL:    conf.SMSWebhookURL,
		publicBaseURL: conf.PublicBaseURL,
		trustProxy:    conf.TrustProxy,
		limiter:       ratelimit.New(time.Minute/time.Duration(perMinute), perMinute),
		log:           log.WithField("component", "api"),
	}
}

// PruneLimiters drops the per-ip limiters of clients that went quiet
func (s *Server) PruneLimiters() int {
	return s.limiter.Prune(10 * time.Minute)
}

const id = "{id:[0-9]+}"

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(s.notFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(s.methodNotAllowed)

	r.HandleFunc("/healthz", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	// public site
	api.HandleFunc("/vehicles", s.listPublicVehicles).Methods(http.MethodGet)
	api.HandleFunc("/vehicles/"+id, s.getPublicVehicle).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.publicSettings).Methods(http.MethodGet)
	api.HandleFunc("/consignments/terms", s.consignmentTerms).Methods(http.MethodGet)
	api.HandleFunc("/push/vapid-public-key", s.vapidPublicKey).Methods(http.MethodGet)
	api.HandleFunc("/sms/webhook", s.smsWebhook).Methods(http.MethodPost)

	forms := api.NewRoute().Subrouter()
	forms.Use(s.throttle)
	forms.HandleFunc("/consignments", s.submitConsignment).Methods(http.MethodPost)
	forms.HandleFunc("/inquiries", s.submitInquiry).Methods(http.MethodPost)
	forms.HandleFunc("/credit-applications", s.submitCreditApplication).Methods(http.MethodPost)
	forms.HandleFunc("/push/subscribe", s.subscribe).Methods(http.MethodPost)
	forms.HandleFunc("/push/unsubscribe", s.unsubscribe).Methods(http.MethodPost)
	forms.HandleFunc("/seller/verify/start", s.sellerVerifyStart).Methods(http.MethodPost)
	forms.HandleFunc("/seller/verify/check", s.sellerVerifyCheck).Methods(http.MethodPost)
	forms.HandleFunc("/admin/login", s.login).Methods(http.MethodPost)

	// seller portal
	api.HandleFunc("/seller/logout", s.sellerLogout).Methods(http.MethodPost)
	seller := api.PathPrefix("/seller").Subrouter()
	seller.Use(s.sessions.RequireSeller)
	seller.HandleFunc("/consignments", s.sellerConsignments).Methods(http.MethodGet)

	// back office
	api.HandleFunc("/admin/logout", s.logout).Methods(http.MethodPost)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.sessions.RequireAdmin())

	admin.HandleFunc("/me", s.me).Methods(http.MethodGet)
	admin.HandleFunc("/dashboard", s.dashboard).Methods(http.MethodGet)
	admin.HandleFunc("/system-check", s.systemCheck).Methods(http.MethodGet)

	admin.HandleFunc("/vehicles", s.listVehicles).Methods(http.MethodGet)
	admin.HandleFunc("/vehicles", s.createVehicle).Methods(http.MethodPost)
	admin.HandleFunc("/vehicles/"+id, s.getVehicle).Methods(http.MethodGet)
	admin.HandleFunc("/vehicles/"+id, s.updateVehicle).Methods(http.MethodPut)
	admin.HandleFunc("/vehicles/"+id, s.deleteVehicle).Methods(http.MethodDelete)
	admin.HandleFunc("/vehicles/"+id+"/status", s.changeVehicleStatus).Methods(http.MethodPost)

	admin.HandleFunc("/consignments", s.listConsignments).Methods(http.MethodGet)
	admin.HandleFunc("/consignments/"+id, s.getConsignment).Methods(http.MethodGet)
	admin.HandleFunc("/consignments/"+id, s.updateConsignment).Methods(http.MethodPatch)
	admin.HandleFunc("/consignments/"+id+"/transition", s.transitionConsignment).Methods(http.MethodPost)
	admin.HandleFunc("/consignments/"+id+"/documents", s.addDocument).Methods(http.MethodPost)
	admin.HandleFunc("/consignments/"+id+"/documents/{doc:[0-9]+}", s.deleteDocument).Methods(http.MethodDelete)

	admin.HandleFunc("/leads", s.listLeads).Methods(http.MethodGet)
	admin.HandleFunc("/leads/board", s.board).Methods(http.MethodGet)
	admin.HandleFunc("/leads/"+id, s.getLead).Methods(http.MethodGet)
	admin.HandleFunc("/leads/"+id+"/move", s.moveLead).Methods(http.MethodPost)
	admin.HandleFunc("/leads/"+id+"/assign", s.assignLead).Methods(http.MethodPost)
	admin.HandleFunc("/leads/"+id+"/notes", s.addLeadNote).Methods(http.MethodPost)
	admin.HandleFunc("/leads/"+id+"/crm-sync", s.syncLead).Methods(http.MethodPost)

	admin.HandleFunc("/sms", s.conversations).Methods(http.MethodGet)
	admin.HandleFunc("/sms", s.sendSMS).Methods(http.MethodPost)
	admin.HandleFunc("/sms/{phone}", s.conversation).Methods(http.MethodGet)

	admin.HandleFunc("/push", s.pushHistory).Methods(http.MethodGet)
	admin.HandleFunc("/push", s.broadcastPush).Methods(http.MethodPost)
	admin.HandleFunc("/push/subscribers", s.pushSubscribers).Methods(http.MethodGet)

	admin.HandleFunc("/notifications", s.notifications).Methods(http.MethodGet)
	admin.HandleFunc("/notifications/read-all", s.markAllRead).Methods(http.MethodPost)
	admin.HandleFunc("/notifications/"+id+"/read", s.markRead).Methods(http.MethodPost)

	admin.HandleFunc("/settings", s.settings).Methods(http.MethodGet)

	// admins only
	owners := admin.NewRoute().Subrouter()
	owners.Use(s.sessions.RequireAdmin(store.RoleAdmin))
	owners.HandleFunc("/settings", s.updateSettings).Methods(http.MethodPut)
	owners.HandleFunc("/users", s.listUsers).Methods(http.MethodGet)
	owners.HandleFunc("/users", s.createUser).Methods(http.MethodPost)
	owners.HandleFunc("/users/"+id, s.updateUser).Methods(http.MethodPatch)

	// outside the router so unmatched requests get an id and a log line too
	return s.requestID(s.accessLog(s.recoverer(r)))
}
