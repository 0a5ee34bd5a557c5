package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/joshdemeester-svg/acme-motors-api-sub001/internal/store"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Payload is what the service worker receives
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// Result counts a broadcast; Expired are the endpoints the push service says are gone
type Result struct {
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Expired []string `json:"-"`
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subject         string
	TTL             int // seconds the push service keeps an undelivered message
	Concurrency     int

	HTTPClient webpush.HTTPClient // nil uses the library's default client
	Logger     *logrus.Entry
}

// Sender delivers Web Push notifications signed with the VAPID keys
type Sender struct {
	publicKey   string
	privateKey  string
	subject     string
	ttl         int
	concurrency int
	httpClient  webpush.HTTPClient
	log         *logrus.Entry
}

func NewSender(conf *Config) *Sender {
	log := conf.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	concurrency := conf.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &Sender{
		publicKey:   conf.VAPIDPublicKey,
		privateKey:  conf.VAPIDPrivateKey,
		subject:     conf.Subject,
		ttl:         conf.TTL,
		concurrency: concurrency,
		httpClient:  conf.HTTPClient,
		log:         log.WithField("component", "push"),
	}
}

func (s *Sender) Configured() bool {
	return s.publicKey != "" && s.privateKey != ""
}

func (s *Sender) PublicKey() string {
	return s.publicKey
}

// Send delivers one payload; expired is true when the subscription no longer exists
func (s *Sender) Send(ctx context.Context, sub store.PushSubscription, p Payload) (expired bool, err error) {
	msg, err := json.Marshal(p)
	if err != nil {
		return false, err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, msg, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      s.subject,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyNormal,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
	})
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return true, nil
	case resp.StatusCode >= 300:
		return false, fmt.Errorf("push: %s responded %d", sub.Endpoint, resp.StatusCode)
	}
	return false, nil
}

/*
Broadcast sends p to every subscription, at most Concurrency at a time.
A failed delivery is counted, never fatal; only a cancelled ctx stops the fan-out.
*/
func (s *Sender) Broadcast(ctx context.Context, subs []store.PushSubscription, p Payload) (*Result, error) {
	res := &Result{Expired: []string{}}
	if len(subs) == 0 {
		return res, nil
	}

	var sent, failed int64
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, sub := range subs {
		sub := sub
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			expired, err := s.Send(gctx, sub, p)
			switch {
			case expired:
				mu.Lock()
				res.Expired = append(res.Expired, sub.Endpoint)
				mu.Unlock()
			case err != nil:
				atomic.AddInt64(&failed, 1)
				s.log.WithError(err).WithField("subscription_id", sub.SubscriptionID).Warn("push failed")
			default:
				atomic.AddInt64(&sent, 1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Sent = int(sent)
	res.Failed = int(failed)
	return res, nil
}

// GenerateVAPIDKeys returns a new key pair, base64 url encoded
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
