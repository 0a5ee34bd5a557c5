package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return New(&Config{
		Enabled:           true,
		BaseURL:           srv.URL + "/",
		APIKey:            "key-123",
		LocationID:        "loc-9",
		RequestsPerSecond: 100,
		HTTPClient:        srv.Client(),
	})
}

func TestUpsertContact(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/contacts/upsert", r.URL.Path)
		assert.Equal(t, "Bearer key-123", r.Header.Get("Authorization"))
		assert.Equal(t, apiVersion, r.Header.Get("Version"))

		body := map[string]interface{}{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "loc-9", body["locationId"])
		assert.Equal(t, "Jane", body["firstName"])
		assert.Equal(t, "van der Berg", body["lastName"])
		assert.Equal(t, "+15551234567", body["phone"])
		assert.Equal(t, []interface{}{"consignment"}, body["tags"])

		w.Write([]byte(`{"new":true,"contact":{"id":"c-42"}}`))
	})

	id, err := c.UpsertContact(context.Background(), Contact{
		Name:  "Jane van der Berg",
		Email: "jane@example.com",
		Phone: "+15551234567",
		Tags:  []string{"consignment"},
	})
	require.NoError(t, err)
	assert.Equal(t, "c-42", id)
}

func TestUpsertContactAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"phone invalid"}`))
	})

	_, err := c.UpsertContact(context.Background(), Contact{Name: "X"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	assert.Contains(t, apiErr.Body, "phone invalid")
}

func TestUpsertContactNoID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"new":false,"contact":{}}`))
	})
	_, err := c.UpsertContact(context.Background(), Contact{Name: "X"})
	assert.Error(t, err)
}

func TestAddNote(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts/c-42/notes", r.URL.Path)
		body := map[string]string{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "called back", body["body"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	})

	require.NoError(t, c.AddNote(context.Background(), "c-42", "called back"))
	assert.Error(t, c.AddNote(context.Background(), "", "x"))
}

func TestDisabledClient(t *testing.T) {
	c := New(&Config{BaseURL: "http://127.0.0.1:1"})
	assert.False(t, c.Enabled())

	id, err := c.UpsertContact(context.Background(), Contact{Name: "X"})
	require.NoError(t, err)
	assert.Empty(t, id)
	assert.NoError(t, c.AddNote(context.Background(), "c-1", "x"))
}

func TestRateLimitHonoursContext(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"contact":{"id":"c"}}`))
	}))
	defer srv.Close()

	c := New(&Config{Enabled: true, BaseURL: srv.URL, RequestsPerSecond: 0.01, HTTPClient: srv.Client()})

	_, err := c.UpsertContact(context.Background(), Contact{Name: "A"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.UpsertContact(ctx, Contact{Name: "B"})
	assert.Error(t, err, "the second call has to wait ~100s for a token")
	assert.Equal(t, 1, calls)
}

func TestSplitName(t *testing.T) {
	f, l := splitName("  Cher ")
	assert.Equal(t, "Cher", f)
	assert.Empty(t, l)

	f, l = splitName("")
	assert.Empty(t, f)
	assert.Empty(t, l)
}
