package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/auth"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/crm"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/push"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/storage"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

// fakeStore keeps rows in maps; methods the tests don't reach panic through the nil embedded Store
type fakeStore struct {
	store.Store

	mu            sync.Mutex
	nextID        int64
	users         map[int64]*store.User
	vehicles      map[int64]*store.Vehicle
	consignments  map[int64]*store.Consignment
	documents     map[int64]*store.ConsignmentDocument
	inquiries     map[int64]*store.Inquiry
	creditApps    map[int64]*store.CreditApplication
	activities    []store.LeadActivity
	sms           []store.SMSMessage
	subs          map[string]*store.PushSubscription
	broadcasts    []store.PushBroadcast
	notifications []store.Notification
	settings      map[string]string
	moves         int

	pingErr   error
	verifyErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[int64]*store.User{},
		vehicles:     map[int64]*store.Vehicle{},
		consignments: map[int64]*store.Consignment{},
		documents:    map[int64]*store.ConsignmentDocument{},
		inquiries:    map[int64]*store.Inquiry{},
		creditApps:   map[int64]*store.CreditApplication{},
		subs:         map[string]*store.PushSubscription{},
		settings:     map[string]string{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) CreateUser(ctx context.Context, u *store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return store.ErrConflict
		}
	}
	u.UserID = f.id()
	cp := *u
	f.users[u.UserID] = &cp
	return nil
}

func (f *fakeStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeStore) ListUsers(ctx context.Context) ([]store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.User{}
	for _, u := range f.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (f *fakeStore) UpdateUser(ctx context.Context, u *store.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.users[u.UserID] = &cp
	return nil
}

func (f *fakeStore) CreateVehicle(ctx context.Context, v *store.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.VehicleID = f.id()
	cp := *v
	f.vehicles[v.VehicleID] = &cp
	return nil
}

func (f *fakeStore) GetVehicle(ctx context.Context, id int64) (*store.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) ListVehicles(ctx context.Context, vf *store.VehicleFilter, opts *storage.SelectOptions) ([]store.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Vehicle{}
	for _, v := range f.vehicles {
		if len(vf.Statuses) > 0 && !containsString(vf.Statuses, v.Status) {
			continue
		}
		if vf.Make != "" && vf.Make != v.Make {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VehicleID < out[j].VehicleID })
	return out, nil
}

func (f *fakeStore) UpdateVehicle(ctx context.Context, v *store.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[v.VehicleID]; !ok {
		return store.ErrNotFound
	}
	cp := *v
	f.vehicles[v.VehicleID] = &cp
	return nil
}

func (f *fakeStore) DeleteVehicle(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vehicles, id)
	return nil
}

func (f *fakeStore) CreateConsignment(ctx context.Context, c *store.Consignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ConsignmentID = f.id()
	c.CreatedAt = testNow
	cp := *c
	f.consignments[c.ConsignmentID] = &cp
	return nil
}

func (f *fakeStore) GetConsignment(ctx context.Context, id int64) (*store.Consignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.consignments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ConsignmentsByOwnerPhone(ctx context.Context, phone string) ([]store.Consignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Consignment{}
	for _, c := range f.consignments {
		if c.OwnerPhone == phone {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConsignmentID > out[j].ConsignmentID })
	return out, nil
}

func (f *fakeStore) UpdateConsignment(ctx context.Context, c *store.Consignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *c
	f.consignments[c.ConsignmentID] = &cp
	return nil
}

func (f *fakeStore) SaveConsignmentVehicle(ctx context.Context, c *store.Consignment, v *store.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.VehicleID == 0 {
		v.VehicleID = f.id()
	}
	v.ConsignmentID = int64Ptr(c.ConsignmentID)
	c.VehicleID = int64Ptr(v.VehicleID)

	vc, cc := *v, *c
	f.vehicles[v.VehicleID] = &vc
	f.consignments[c.ConsignmentID] = &cc
	return nil
}

func (f *fakeStore) AddDocument(ctx context.Context, d *store.ConsignmentDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.DocumentID = f.id()
	cp := *d
	f.documents[d.DocumentID] = &cp
	return nil
}

func (f *fakeStore) GetDocument(ctx context.Context, id int64) (*store.ConsignmentDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.documents[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeStore) DocumentsForConsignment(ctx context.Context, consignmentID int64) ([]store.ConsignmentDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.ConsignmentDocument{}
	for _, d := range f.documents {
		if d.ConsignmentID == consignmentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteDocument(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.documents, id)
	return nil
}

func (f *fakeStore) CreateInquiry(ctx context.Context, i *store.Inquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i.InquiryID = f.id()
	cp := *i
	f.inquiries[i.InquiryID] = &cp
	return nil
}

func (f *fakeStore) GetInquiry(ctx context.Context, id int64) (*store.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.inquiries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (f *fakeStore) Board(ctx context.Context, filter *store.InquiryFilter) ([]store.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Inquiry{}
	for _, i := range f.inquiries {
		if filter.Kind == "" || filter.Kind == i.Kind {
			out = append(out, *i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Position < out[b].Position })
	return out, nil
}

func (f *fakeStore) UpdateInquiry(ctx context.Context, i *store.Inquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *i
	f.inquiries[i.InquiryID] = &cp
	return nil
}

func (f *fakeStore) SetInquiryCRMContact(ctx context.Context, id int64, contactID string) (*store.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.inquiries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	i.CRMContactID = contactID
	cp := *i
	return &cp, nil
}

func (f *fakeStore) MoveInquiry(ctx context.Context, id int64, stage string, position int) (*store.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.inquiries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	f.moves++
	i.Stage = stage
	i.Position = position
	cp := *i
	return &cp, nil
}

func (f *fakeStore) LatestInquiryByPhone(ctx context.Context, phone string) (*store.Inquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *store.Inquiry
	for _, i := range f.inquiries {
		if i.Phone == phone && (latest == nil || i.InquiryID > latest.InquiryID) {
			latest = i
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) CreateCreditApplication(ctx context.Context, i *store.Inquiry, app *store.CreditApplication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i.InquiryID = f.id()
	app.CreditApplicationID = f.id()
	app.InquiryID = i.InquiryID
	ic, ac := *i, *app
	f.inquiries[i.InquiryID] = &ic
	f.creditApps[i.InquiryID] = &ac
	return nil
}

func (f *fakeStore) CreditApplicationForInquiry(ctx context.Context, inquiryID int64) (*store.CreditApplication, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.creditApps[inquiryID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (f *fakeStore) AddActivity(ctx context.Context, a *store.LeadActivity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ActivityID = f.id()
	f.activities = append(f.activities, *a)
	return nil
}

func (f *fakeStore) ActivitiesForInquiry(ctx context.Context, inquiryID int64, opts *storage.SelectOptions) ([]store.LeadActivity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.LeadActivity{}
	for _, a := range f.activities {
		if a.InquiryID == inquiryID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) activitiesOf(kind string) []store.LeadActivity {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.LeadActivity{}
	for _, a := range f.activities {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeStore) CreateSMS(ctx context.Context, m *store.SMSMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.MessageID = f.id()
	f.sms = append(f.sms, *m)
	return nil
}

func (f *fakeStore) UpsertPushSubscription(ctx context.Context, sub *store.PushSubscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.subs[sub.Endpoint]; ok {
		sub.SubscriptionID = existing.SubscriptionID
	} else {
		sub.SubscriptionID = f.id()
	}
	cp := *sub
	f.subs[sub.Endpoint] = &cp
	return nil
}

func (f *fakeStore) DeletePushSubscription(ctx context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, endpoint)
	return nil
}

func (f *fakeStore) ListPushSubscriptions(ctx context.Context) ([]store.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.PushSubscription{}
	for _, s := range f.subs {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) CreateBroadcast(ctx context.Context, b *store.PushBroadcast) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.BroadcastID = f.id()
	f.broadcasts = append(f.broadcasts, *b)
	return nil
}

func (f *fakeStore) CreateNotification(ctx context.Context, n *store.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.NotificationID = f.id()
	f.notifications = append(f.notifications, *n)
	return nil
}

func (f *fakeStore) GetSetting(ctx context.Context, key string) (*store.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.settings[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.Setting{Key: key, Value: v}, nil
}

func (f *fakeStore) ListSettings(ctx context.Context) ([]store.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []store.Setting{}
	for k, v := range f.settings {
		out = append(out, store.Setting{Key: k, Value: v})
	}
	return out, nil
}

func (f *fakeStore) PutSetting(ctx context.Context, key, value string) (*store.Setting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[key] = value
	return &store.Setting{Key: key, Value: value}, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	return f.pingErr
}

func (f *fakeStore) Verify(ctx context.Context) error {
	return f.verifyErr
}

func (f *fakeStore) smsSnapshot() []store.SMSMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.SMSMessage(nil), f.sms...)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// fakeSMS records what would have been texted
type fakeSMS struct {
	mu         sync.Mutex
	configured bool
	sent       []string
	verifies   []string
	code       string
	sendErr    error
}

func (f *fakeSMS) Configured() bool {
	return f.configured
}

func (f *fakeSMS) StartVerification(ctx context.Context, phone string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies = append(f.verifies, phone)
	return nil
}

func (f *fakeSMS) CheckVerification(ctx context.Context, phone, code string) (bool, error) {
	return code == f.code, nil
}

func (f *fakeSMS) Send(ctx context.Context, to, body string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, to+": "+body)
	return "SM123", nil
}

func (f *fakeSMS) ValidateWebhook(url string, params map[string]string, signature string) bool {
	return signature == "good"
}

func (f *fakeSMS) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

type fakePusher struct {
	configured bool
	result     *push.Result
	payloads   []push.Payload
}

func (f *fakePusher) Configured() bool {
	return f.configured
}

func (f *fakePusher) PublicKey() string {
	return "BPUBLIC"
}

func (f *fakePusher) Broadcast(ctx context.Context, subs []store.PushSubscription, p push.Payload) (*push.Result, error) {
	f.payloads = append(f.payloads, p)
	return f.result, nil
}

type fakeCRM struct {
	mu       sync.Mutex
	enabled  bool
	contacts []crm.Contact
	notes    []string

	// when set, UpsertContact signals upserting and waits for release
	upserting chan struct{}
	release   chan struct{}
}

func (f *fakeCRM) Enabled() bool {
	return f.enabled
}

func (f *fakeCRM) UpsertContact(ctx context.Context, c crm.Contact) (string, error) {
	if f.release != nil {
		f.upserting <- struct{}{}
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, c)
	return "contact-1", nil
}

func (f *fakeCRM) AddNote(ctx context.Context, contactID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = append(f.notes, contactID+": "+body)
	return nil
}

type testService struct {
	*Service
	store    *fakeStore
	sms      *fakeSMS
	push     *fakePusher
	crm      *fakeCRM
	sessions *auth.Manager
	redis    *miniredis.Miniredis
}

func newTestService(t *testing.T) *testService {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := auth.NewManager(&auth.Config{
		Redis:        client,
		TTL:          time.Hour,
		AdminCookie:  "acme_admin",
		SellerCookie: "acme_seller",
	})

	ts := &testService{
		store:    newFakeStore(),
		sms:      &fakeSMS{configured: true, code: "123456"},
		push:     &fakePusher{configured: true, result: &push.Result{}},
		crm:      &fakeCRM{enabled: true},
		sessions: sessions,
		redis:    mr,
	}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	ts.Service = New(&Config{
		Store:         ts.store,
		SMS:           ts.sms,
		Push:          ts.push,
		CRM:           ts.crm,
		Sessions:      sessions,
		Redis:         client,
		VerifyPerHour: 3,
		Logger:        logrus.NewEntry(log),
		Now:           func() time.Time { return testNow },
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, ts.Wait(ctx))
	})
	return ts
}

// drain waits for the background side effects of the calls so far
func (ts *testService) drain(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.Wait(ctx))
}
