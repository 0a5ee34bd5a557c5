package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const apiVersion = "2021-07-28"

// Contact is the lead as the CRM sees it
type Contact struct {
	Name   string
	Email  string
	Phone  string
	Source string
	Tags   []string
}

type Config struct {
	Enabled           bool
	BaseURL           string
	APIKey            string
	LocationID        string
	RequestsPerSecond float64
	Timeout           time.Duration

	HTTPClient *http.Client
	Logger     *logrus.Entry
}

// Client talks to the GoHighLevel v2 API; a disabled client does nothing and says so through Enabled
type Client struct {
	enabled    bool
	baseURL    string
	apiKey     string
	locationID string
	limiter    *rate.Limiter
	http       *http.Client
	log        *logrus.Entry
}

// APIError is a non-2xx answer from the CRM
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crm: status %d: %s", e.Status, e.Body)
}

func New(conf *Config) *Client {
	log := conf.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}

	hc := conf.HTTPClient
	if hc == nil {
		timeout := conf.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	rps := conf.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &Client{
		enabled:    conf.Enabled,
		baseURL:    strings.TrimRight(conf.BaseURL, "/"),
		apiKey:     conf.APIKey,
		locationID: conf.LocationID,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		http:       hc,
		log:        log.WithField("component", "crm"),
	}
}

func (c *Client) Enabled() bool {
	return c.enabled
}

type upsertRequest struct {
	LocationID string   `json:"locationId"`
	FirstName  string   `json:"firstName,omitempty"`
	LastName   string   `json:"lastName,omitempty"`
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Source     string   `json:"source,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

type upsertResponse struct {
	New     bool `json:"new"`
	Contact struct {
		ID string `json:"id"`
	} `json:"contact"`
}

// UpsertContact creates or updates the contact matched by email/phone and returns its id
func (c *Client) UpsertContact(ctx context.Context, contact Contact) (string, error) {
	if !c.enabled {
		return "", nil
	}

	first, last := splitName(contact.Name)
	req := upsertRequest{
		LocationID: c.locationID,
		FirstName:  first,
		LastName:   last,
		Name:       contact.Name,
		Email:      contact.Email,
		Phone:      contact.Phone,
		Source:     contact.Source,
		Tags:       contact.Tags,
	}

	res := upsertResponse{}
	if err := c.do(ctx, http.MethodPost, "/contacts/upsert", req, &res); err != nil {
		return "", err
	}
	if res.Contact.ID == "" {
		return "", fmt.Errorf("crm: upsert returned no contact id")
	}

	c.log.WithFields(logrus.Fields{"contact_id": res.Contact.ID, "new": res.New}).Debug("contact upserted")
	return res.Contact.ID, nil
}

// AddNote attaches a note to a contact
func (c *Client) AddNote(ctx context.Context, contactID, body string) error {
	if !c.enabled {
		return nil
	}
	if contactID == "" {
		return fmt.Errorf("crm: note needs a contact id")
	}
	return c.do(ctx, http.MethodPost, "/contacts/"+contactID+"/notes", map[string]string{"body": body}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	b, err := json.Marshal(in)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Version", apiVersion)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("crm: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("crm: decode %s: %w", path, err)
	}
	return nil
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
