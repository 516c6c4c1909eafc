package app

import (
	"os"
	"strings"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Service names one of the deployable binaries.
type Service string

const (
	Orders        Service = "orders"
	Invoices      Service = "invoices"
	Notifications Service = "notifications"
	Verification  Service = "verification"
)

// defaultPorts keeps the services from colliding when run side by side.
var defaultPorts = map[Service]string{
	Orders:        "3000",
	Invoices:      "3001",
	Notifications: "3002",
	Verification:  "3003",
}

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	MailLog  = "log"
	MailSMTP = "smtp"
)

// Config is shared by every binary; each reads the sections it needs. It
// loads from SHIPTRACK_<SERVICE>_ prefixed environment variables, flags and
// YAML files.
type Config struct {
	Addr        string `default:"" usage:"Listen address (defaults to 0.0.0.0 and the service port)"`
	Environment string `default:"development" usage:"Deployment environment: development or production"`
	Storage     StorageConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig

	// Orders service.
	InvoicesURL       string        `default:"http://localhost:3001" usage:"Invoices service base URL" flag:"invoices-url"`
	NotificationsURL  string        `default:"http://localhost:3002" usage:"Notifications service base URL" flag:"notifications-url"`
	SideEffectTimeout time.Duration `default:"5s" usage:"Timeout for each downstream call made after an order write"`
	PushReplica       string        `default:"auto" usage:"Push new orders to the invoices service: auto, true or false"`

	// Invoices and verification services.
	PublicURL  string        `default:"" usage:"Externally reachable base URL for stored files"`
	ExportDir  string        `default:"exports" usage:"Directory for files in memory storage mode" flag:"export-dir"`
	SigningKey string        `usage:"HMAC key for signed file URLs in postgres storage mode" flag:"signing-key"`
	URLTTL     time.Duration `default:"24h" usage:"Lifetime of signed file URLs" flag:"url-ttl"`
	Company    string        `default:"ShipTrack Logistics" usage:"Company name printed on invoices"`

	// Invoices and notifications services.
	Mail MailConfig
}

// StorageConfig selects the order store backend.
type StorageConfig struct {
	Mode        string `default:"memory" usage:"Storage backend: memory or postgres"`
	DatabaseURL string `usage:"PostgreSQL connection URL (also read from DATABASE_URL)" flag:"database-url"`
}

// MailConfig selects and configures the mailer.
type MailConfig struct {
	Mode             string        `default:"log" usage:"Mailer: log (dry run) or smtp"`
	Host             string        `usage:"SMTP host"`
	Port             int           `default:"587" usage:"SMTP port"`
	Username         string        `usage:"SMTP username"`
	Password         string        `usage:"SMTP password"`
	From             string        `default:"ShipTrack <noreply@shiptrack.local>" usage:"Sender address"`
	Timeout          time.Duration `default:"10s" usage:"SMTP dial and send timeout"`
	SandboxRecipient string        `usage:"Deliver every message to this verified address instead"`
	TestEmail        string        `default:"test@example.com" usage:"Recipient of POST /test-notification without a body"`
}

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration for svc and validates the sections it uses.
func LoadConfig(svc Service) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHIPTRACK_" + strings.ToUpper(string(svc)),
		Files:     []string{"config.yaml", "/etc/shiptrack/" + string(svc) + ".yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(svc)

	if err := cfg.validate(svc); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults honours the PORT and DATABASE_URL variables most
// hosting platforms inject.
func (c *Config) applyPlatformDefaults(svc Service) {
	if c.Storage.DatabaseURL == "" {
		c.Storage.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if c.Addr == "" {
		port := defaultPorts[svc]
		if p := os.Getenv("PORT"); p != "" {
			port = p
		}
		c.Addr = "0.0.0.0:" + port
	}
	if c.PublicURL == "" {
		_, port, _ := strings.Cut(c.Addr, ":")
		c.PublicURL = "http://localhost:" + port
	}
}

func (c *Config) validate(svc Service) error {
	switch c.Storage.Mode {
	case StorageMemory:
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required in postgres mode: set SHIPTRACK_" +
				strings.ToUpper(string(svc)) + "_STORAGE_DATABASE_URL or DATABASE_URL")
		}
		if svc == Invoices || svc == Verification {
			if c.SigningKey == "" {
				return errors.New("signing key is required in postgres mode")
			}
		}
	default:
		return errors.Errorf("unknown storage mode %q", c.Storage.Mode)
	}

	if svc == Invoices || svc == Notifications {
		switch c.Mail.Mode {
		case MailLog:
		case MailSMTP:
			if c.Mail.Host == "" {
				return errors.New("smtp host is required in smtp mail mode")
			}
		default:
			return errors.Errorf("unknown mail mode %q", c.Mail.Mode)
		}
	}

	if svc == Orders {
		switch c.PushReplica {
		case "auto", "true", "false":
		default:
			return errors.Errorf("push replica must be auto, true or false, got %q", c.PushReplica)
		}
	}
	return nil
}

// pushReplica resolves the auto setting: replicas are needed only when each
// service keeps its own volatile store.
func (c *Config) pushReplica() bool {
	switch c.PushReplica {
	case "true":
		return true
	case "false":
		return false
	default:
		return c.Storage.Mode == StorageMemory
	}
}
