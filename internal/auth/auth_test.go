package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewManager(&Config{
		Redis:        client,
		TTL:          time.Hour,
		AdminCookie:  "admin",
		SellerCookie: "seller",
	}), mr
}

func TestSessionLifecycle(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, &Session{Kind: KindAdmin, UserID: 7, Role: "admin"})
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, mr.Exists("session:"+token))

	mr.FastForward(30 * time.Minute)

	s, err := m.Get(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.UserID)
	assert.Equal(t, token, s.Token)
	assert.Equal(t, time.Hour, mr.TTL("session:"+token), "reading slides the expiry")

	require.NoError(t, m.Destroy(ctx, token))
	_, err = m.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestSessionExpires(t *testing.T) {
	m, mr := newTestManager(t)
	ctx := context.Background()

	token, err := m.Create(ctx, &Session{Kind: KindSeller, Phone: "+15551234567"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Hour)
	_, err = m.Get(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Get(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestDestroyUser(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	a, err := m.Create(ctx, &Session{Kind: KindAdmin, UserID: 1})
	require.NoError(t, err)
	b, err := m.Create(ctx, &Session{Kind: KindAdmin, UserID: 2})
	require.NoError(t, err)

	require.NoError(t, m.DestroyUser(ctx, 1))

	_, err = m.Get(ctx, a)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = m.Get(ctx, b)
	assert.NoError(t, err)
}

func TestRequireAdmin(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	staff, err := m.Create(ctx, &Session{Kind: KindAdmin, UserID: 3, Role: "staff"})
	require.NoError(t, err)
	seller, err := m.Create(ctx, &Session{Kind: KindSeller, Phone: "+15551234567"})
	require.NoError(t, err)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := FromContext(r.Context())
		require.NotNil(t, s)
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		cookie *http.Cookie
		roles  []string
		want   int
	}{
		{name: "no cookie", want: http.StatusUnauthorized},
		{name: "unknown token", cookie: &http.Cookie{Name: "admin", Value: "nope"}, want: http.StatusUnauthorized},
		{name: "staff any role", cookie: &http.Cookie{Name: "admin", Value: staff}, want: http.StatusNoContent},
		{name: "staff needs admin", cookie: &http.Cookie{Name: "admin", Value: staff}, roles: []string{"admin"}, want: http.StatusForbidden},
		{name: "seller token in admin cookie", cookie: &http.Cookie{Name: "admin", Value: seller}, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/admin/me", nil)
			if tt.cookie != nil {
				r.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			m.RequireAdmin(tt.roles...)(ok).ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireSeller(t *testing.T) {
	m, _ := newTestManager(t)

	token, err := m.Create(context.Background(), &Session{Kind: KindSeller, Phone: "+15551234567"})
	require.NoError(t, err)

	var phone string
	h := m.RequireSeller(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		phone = FromContext(r.Context()).Phone
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/seller/consignments", nil)
	r.AddCookie(&http.Cookie{Name: "seller", Value: token})
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "+15551234567", phone)
}

func TestCookies(t *testing.T) {
	m, _ := newTestManager(t)

	w := httptest.NewRecorder()
	m.SetCookie(w, KindSeller, "tok")
	c := w.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, "seller", c[0].Name)
	assert.Equal(t, "tok", c[0].Value)
	assert.True(t, c[0].HttpOnly)
	assert.Equal(t, 3600, c[0].MaxAge)

	w = httptest.NewRecorder()
	m.ClearCookie(w, KindAdmin)
	c = w.Result().Cookies()
	require.Len(t, c, 1)
	assert.Equal(t, "admin", c[0].Name)
	assert.Less(t, c[0].MaxAge, 0)
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, CheckPassword(hash, "correct horse"))
	assert.ErrorIs(t, CheckPassword(hash, "battery staple"), ErrInvalidCredentials)
}
