package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Provider = (*Twilio)(nil)
	_ Provider = (*Noop)(nil)
)

func TestNoop(t *testing.T) {
	n := NewNoop(nil)
	ctx := context.Background()

	assert.False(t, n.Configured())
	assert.ErrorIs(t, n.StartVerification(ctx, "+15551234567"), ErrNotConfigured)

	ok, err := n.CheckVerification(ctx, "+15551234567", "123456")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, ok)

	sid, err := n.Send(ctx, "+15551234567", "hello")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sid, "noop-"))

	assert.False(t, n.ValidateWebhook("https://example.com", nil, "sig"))
}

func TestTwilioWebhookSignature(t *testing.T) {
	tw := NewTwilio(&TwilioConfig{AccountSID: "AC123", AuthToken: "12345", VerifyServiceSID: "VA123"})
	assert.True(t, tw.Configured())

	// the worked example from Twilio's webhook security docs
	url := "https://mycompany.com/myapp.php?foo=1&bar=2"
	params := map[string]string{
		"CallSid": "CA1234567890ABCDE",
		"Caller":  "+12349013030",
		"Digits":  "1234",
		"From":    "+12349013030",
		"To":      "+18005551212",
	}
	assert.True(t, tw.ValidateWebhook(url, params, "GvWf1cFY/Q7PnoempGyD5oXAezc="))
	assert.False(t, tw.ValidateWebhook(url, params, "nope"))
}

func TestTwilioSendNeedsFrom(t *testing.T) {
	tw := NewTwilio(&TwilioConfig{AccountSID: "AC123", AuthToken: "12345"})
	_, err := tw.Send(context.Background(), "+15551234567", "hi")
	assert.Error(t, err)
}

// toServer sends every Twilio request to srv
type toServer struct {
	srv *url.URL
}

func (r toServer) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = r.srv.Scheme
	req.URL.Host = r.srv.Host
	req.Host = r.srv.Host
	return http.DefaultTransport.RoundTrip(req)
}

func newStubTwilio(t *testing.T, h http.HandlerFunc) *Twilio {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewTwilio(&TwilioConfig{
		AccountSID:       "AC123",
		AuthToken:        "12345",
		VerifyServiceSID: "VA123",
		HTTPClient:       &http.Client{Transport: toServer{srv: u}},
	})
}

func TestTwilioCheckVerification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		ok     bool
		err    bool
	}{
		{"approved", http.StatusOK, `{"sid":"VE1","status":"approved"}`, true, false},
		{"wrong code", http.StatusOK, `{"sid":"VE1","status":"pending"}`, false, false},
		{"no pending verification", http.StatusNotFound,
			`{"code":20404,"message":"The requested resource /Services/VA123/VerificationCheck was not found","more_info":"https://www.twilio.com/docs/errors/20404","status":404}`,
			false, false},
		{"provider down", http.StatusInternalServerError, `{"code":20500,"message":"Internal Server Error","status":500}`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tw := newStubTwilio(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v2/Services/VA123/VerificationCheck", r.URL.Path)
				require.NoError(t, r.ParseForm())
				assert.Equal(t, "+15551234567", r.PostForm.Get("To"))
				assert.Equal(t, "123456", r.PostForm.Get("Code"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			ok, err := tw.CheckVerification(context.Background(), "+15551234567", "123456")
			if tt.err {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.ok, ok)
		})
	}
}
