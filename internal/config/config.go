package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the whole API configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Twilio   TwilioConfig   `yaml:"twilio"`
	Push     PushConfig     `yaml:"push"`
	CRM      CRMConfig      `yaml:"crm"`
	Seller   SellerConfig   `yaml:"seller"`
	Logging  LoggingConfig  `yaml:"logging"`
	Storage  StorageConfig  `yaml:"storage"`
}

type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	IdleTimeout   time.Duration `yaml:"idle_timeout"`
	CookieSecure  bool          `yaml:"cookie_secure"`
	PublicBaseURL string        `yaml:"public_base_url"`
	// TrustProxy takes the client ip from X-Forwarded-For
	TrustProxy bool `yaml:"trust_proxy"`
	// PublicPostsPerMinute throttles public form posts per client ip
	PublicPostsPerMinute int `yaml:"public_posts_per_minute"`
}

// DatabaseConfig has a write and an optional read replica dsn; reads use write_dsn when read_dsn is empty
type DatabaseConfig struct {
	WriteDSN     string `yaml:"write_dsn"`
	ReadDSN      string `yaml:"read_dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	DisableCache bool   `yaml:"disable_cache"`
}

type SessionConfig struct {
	TTL          time.Duration `yaml:"ttl"`
	AdminCookie  string        `yaml:"admin_cookie"`
	SellerCookie string        `yaml:"seller_cookie"`
}

type TwilioConfig struct {
	AccountSID       string `yaml:"account_sid"`
	AuthToken        string `yaml:"auth_token"`
	VerifyServiceSID string `yaml:"verify_service_sid"`
	FromNumber       string `yaml:"from_number"`
	// WebhookURL is the public url Twilio signs inbound requests with
	WebhookURL       string `yaml:"webhook_url"`
	ValidateWebhooks bool   `yaml:"validate_webhooks"`
}

type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subject         string `yaml:"subject"` // mailto: or https: contact for the push service
	TTL             int    `yaml:"ttl"`     // seconds
	Concurrency     int    `yaml:"concurrency"`
}

// CRMConfig is the GoHighLevel integration
type CRMConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	LocationID        string        `yaml:"location_id"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

type SellerConfig struct {
	VerifyPerHour int `yaml:"verify_per_hour"` // verification codes a phone may request per hour
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

type StorageConfig struct {
	Debug    bool          `yaml:"debug"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// Default returns the configuration used for anything a file or the environment doesn't set
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			ReadTimeout:   15 * time.Second,
			WriteTimeout:  30 * time.Second,
			IdleTimeout:   60 * time.Second,
			CookieSecure:  true,
			PublicBaseURL: "http://localhost:8080",

			PublicPostsPerMinute: 20,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 20,
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Session: SessionConfig{
			TTL:          7 * 24 * time.Hour,
			AdminCookie:  "acme_admin",
			SellerCookie: "acme_seller",
		},
		Push: PushConfig{
			Subject:     "mailto:admin@acmemotors.example",
			TTL:         86400,
			Concurrency: 8,
		},
		Twilio: TwilioConfig{
			ValidateWebhooks: true,
		},
		CRM: CRMConfig{
			BaseURL:           "https://services.leadconnectorhq.com",
			RequestsPerSecond: 5,
			Timeout:           10 * time.Second,
		},
		Seller: SellerConfig{
			VerifyPerHour: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			CacheTTL: 7 * 24 * time.Hour,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies ACME_* environment overrides.
// An empty path or a missing file means defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case os.IsNotExist(err):
			// defaults
		default:
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	strs := map[string]*string{
		"ACME_ADDR":                      &c.Server.Addr,
		"ACME_PUBLIC_BASE_URL":           &c.Server.PublicBaseURL,
		"ACME_DATABASE_URL":              &c.Database.WriteDSN,
		"ACME_DATABASE_READ_URL":         &c.Database.ReadDSN,
		"ACME_REDIS_ADDR":                &c.Redis.Addr,
		"ACME_REDIS_PASSWORD":            &c.Redis.Password,
		"ACME_TWILIO_ACCOUNT_SID":        &c.Twilio.AccountSID,
		"ACME_TWILIO_AUTH_TOKEN":         &c.Twilio.AuthToken,
		"ACME_TWILIO_VERIFY_SERVICE_SID": &c.Twilio.VerifyServiceSID,
		"ACME_TWILIO_FROM_NUMBER":        &c.Twilio.FromNumber,
		"ACME_TWILIO_WEBHOOK_URL":        &c.Twilio.WebhookURL,
		"ACME_VAPID_PUBLIC_KEY":          &c.Push.VAPIDPublicKey,
		"ACME_VAPID_PRIVATE_KEY":         &c.Push.VAPIDPrivateKey,
		"ACME_VAPID_SUBJECT":             &c.Push.Subject,
		"ACME_CRM_BASE_URL":              &c.CRM.BaseURL,
		"ACME_CRM_API_KEY":               &c.CRM.APIKey,
		"ACME_CRM_LOCATION_ID":           &c.CRM.LocationID,
		"ACME_LOG_LEVEL":                 &c.Logging.Level,
		"ACME_LOG_FORMAT":                &c.Logging.Format,
	}
	for env, dst := range strs {
		if v, ok := os.LookupEnv(env); ok {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"ACME_COOKIE_SECURE":            &c.Server.CookieSecure,
		"ACME_TRUST_PROXY":              &c.Server.TrustProxy,
		"ACME_REDIS_DISABLE_CACHE":      &c.Redis.DisableCache,
		"ACME_TWILIO_VALIDATE_WEBHOOKS": &c.Twilio.ValidateWebhooks,
		"ACME_CRM_ENABLED":              &c.CRM.Enabled,
		"ACME_STORAGE_DEBUG":            &c.Storage.Debug,
	}
	for env, dst := range bools {
		v, ok := os.LookupEnv(env)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", env, err)
		}
		*dst = b
	}

	if v, ok := os.LookupEnv("ACME_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: ACME_REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}

	return nil
}

// ReadDSN falls back to the write dsn when there's no replica
func (c *Config) ReadDSN() string {
	if c.Database.ReadDSN != "" {
		return c.Database.ReadDSN
	}
	return c.Database.WriteDSN
}

// TwilioEnabled is true when messaging and verification can both be used
func (c *Config) TwilioEnabled() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.VerifyServiceSID != ""
}

func (c *Config) PushEnabled() bool {
	return c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != ""
}

var validLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration needed to serve
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.PublicPostsPerMinute < 1 {
		errs = append(errs, errors.New("server.public_posts_per_minute must be at least 1"))
	}
	if c.Database.WriteDSN == "" {
		errs = append(errs, errors.New("database.write_dsn is required (or ACME_DATABASE_URL)"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.AdminCookie == "" || c.Session.SellerCookie == "" {
		errs = append(errs, errors.New("session cookie names are required"))
	}
	if c.Session.AdminCookie == c.Session.SellerCookie {
		errs = append(errs, errors.New("session.admin_cookie and session.seller_cookie must differ"))
	}
	if c.TwilioEnabled() && c.Twilio.ValidateWebhooks && c.Twilio.WebhookURL == "" && c.Server.PublicBaseURL == "" {
		errs = append(errs, errors.New("twilio.webhook_url or server.public_base_url is required to validate webhooks"))
	}
	if (c.Push.VAPIDPublicKey == "") != (c.Push.VAPIDPrivateKey == "") {
		errs = append(errs, errors.New("push needs both vapid keys or neither"))
	}
	if c.Push.Concurrency < 1 {
		errs = append(errs, errors.New("push.concurrency must be at least 1"))
	}
	if c.CRM.Enabled && (c.CRM.APIKey == "" || c.CRM.LocationID == "") {
		errs = append(errs, errors.New("crm.api_key and crm.location_id are required when crm is enabled"))
	}
	if c.CRM.RequestsPerSecond <= 0 {
		errs = append(errs, errors.New("crm.requests_per_second must be positive"))
	}
	if c.Seller.VerifyPerHour < 1 {
		errs = append(errs, errors.New("seller.verify_per_hour must be at least 1"))
	}

	valid := false
	for _, l := range validLevels {
		if strings.EqualFold(c.Logging.Level, l) {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, validLevels))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
