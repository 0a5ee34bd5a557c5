package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("not signed in")
	ErrForbidden          = errors.New("not allowed")
)

const (
	KindAdmin  = "admin"
	KindSeller = "seller"

	sessionKeyPrefix = "session:"
)

// Session is what's stored in redis behind the cookie
type Session struct {
	Token     string    `json:"-"`
	Kind      string    `json:"kind"`
	UserID    int64     `json:"user_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Phone     string    `json:"phone,omitempty"` // verified seller phone
	CreatedAt time.Time `json:"created_at"`
}

type Config struct {
	Redis        redis.UniversalClient
	TTL          time.Duration
	AdminCookie  string
	SellerCookie string
	Secure       bool

	// Unauthorized writes the response when the middleware turns a request away
	Unauthorized func(w http.ResponseWriter, r *http.Request, err error)
}

// Manager issues and checks cookie sessions kept in redis; each use pushes the expiry out again
type Manager struct {
	redis        redis.UniversalClient
	ttl          time.Duration
	adminCookie  string
	sellerCookie string
	secure       bool
	unauthorized func(w http.ResponseWriter, r *http.Request, err error)
}

func NewManager(conf *Config) *Manager {
	m := &Manager{
		redis:        conf.Redis,
		ttl:          conf.TTL,
		adminCookie:  conf.AdminCookie,
		sellerCookie: conf.SellerCookie,
		secure:       conf.Secure,
		unauthorized: conf.Unauthorized,
	}
	if m.unauthorized == nil {
		m.unauthorized = func(w http.ResponseWriter, r *http.Request, err error) {
			status := http.StatusUnauthorized
			if errors.Is(err, ErrForbidden) {
				status = http.StatusForbidden
			}
			http.Error(w, err.Error(), status)
		}
	}
	return m
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// Create stores the session under a new random token and returns it
func (m *Manager) Create(ctx context.Context, s *Session) (string, error) {
	s.Token = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	if err := m.redis.Set(ctx, sessionKey(s.Token), b, m.ttl).Err(); err != nil {
		return "", fmt.Errorf("auth: store session: %w", err)
	}
	return s.Token, nil
}

// Get loads the session and slides its expiry
func (m *Manager) Get(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoSession
	}

	b, err := m.redis.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("auth: load session: %w", err)
	}

	s := &Session{}
	if err := json.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("auth: decode session: %w", err)
	}
	s.Token = token

	if err := m.redis.Expire(ctx, sessionKey(token), m.ttl).Err(); err != nil {
		return nil, fmt.Errorf("auth: refresh session: %w", err)
	}
	return s, nil
}

func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.redis.Del(ctx, sessionKey(token)).Err()
}

// DestroyUser ends every admin session of the user, e.g. when they're deactivated
func (m *Manager) DestroyUser(ctx context.Context, userID int64) error {
	iter := m.redis.Scan(ctx, 0, sessionKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		b, err := m.redis.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		s := Session{}
		if json.Unmarshal(b, &s) != nil {
			continue
		}
		if s.Kind == KindAdmin && s.UserID == userID {
			if err := m.redis.Del(ctx, key).Err(); err != nil {
				return err
			}
		}
	}
	return iter.Err()
}

func (m *Manager) cookieName(kind string) string {
	if kind == KindSeller {
		return m.sellerCookie
	}
	return m.adminCookie
}

func (m *Manager) SetCookie(w http.ResponseWriter, kind, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName(kind),
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *Manager) ClearCookie(w http.ResponseWriter, kind string) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName(kind),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Token reads the session token of kind off the request's cookies
func (m *Manager) Token(r *http.Request, kind string) string {
	c, err := r.Cookie(m.cookieName(kind))
	if err != nil {
		return ""
	}
	return c.Value
}

// FromRequest loads the session of kind the request carries
func (m *Manager) FromRequest(r *http.Request, kind string) (*Session, error) {
	s, err := m.Get(r.Context(), m.Token(r, kind))
	if err != nil {
		return nil, err
	}
	if s.Kind != kind {
		return nil, ErrNoSession
	}
	return s, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword returns ErrInvalidCredentials on a mismatch
func CheckPassword(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	return err
}
