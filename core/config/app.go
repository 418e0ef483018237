package config

import (
	"time"

	"github.com/stackway/edgecert/core/logger"
	"github.com/stackway/edgecert/core/notify"
)

// App holds the full edgecert process configuration. It is assembled once in
// main and handed to components by reference; no component reads the
// environment on its own.
type App struct {
	// Identity of the certificate subject.
	Domain string `env:"DOMAIN,required"`
	Email  string `env:"EMAIL,required"`

	// Environment name controls error verbosity and HSTS behavior.
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	// Certificate authority API.
	CAAPIURL string `env:"CA_API_URL"`
	CAAPIKey string `env:"CA_API_KEY"`

	// Filesystem layout.
	CertificateDir string `env:"CERTIFICATE_DIR" envDefault:"./certs"`
	DBCertDir      string `env:"DB_CERT_DIR" envDefault:"./certs/db"`
	DBCADir        string `env:"DB_CA_DIR" envDefault:"./certs/db"`
	ChallengeDir   string `env:"CHALLENGE_DIR" envDefault:"./challenge"`
	StatusFile     string `env:"SERVER_STATUS_FILE" envDefault:"./server-status.json"`

	// Listeners.
	HTTPPort      int `env:"HTTP_PORT" envDefault:"80"`
	PrimaryPort   int `env:"PRIMARY_PORT" envDefault:"443"`
	SecondaryPort int `env:"SECONDARY_PORT" envDefault:"8443"`

	// Renewal and draining.
	RenewalCheckInterval time.Duration `env:"RENEWAL_CHECK_INTERVAL" envDefault:"24h"`
	RenewalThreshold     time.Duration `env:"RENEWAL_THRESHOLD" envDefault:"720h"`
	ServerDrainTime      time.Duration `env:"SERVER_DRAIN_TIME" envDefault:"60s"`

	// CA interaction tuning.
	VerifyTimeout   time.Duration `env:"CA_VERIFY_TIMEOUT" envDefault:"2m"`
	DownloadDelay   time.Duration `env:"CA_DOWNLOAD_DELAY" envDefault:"10s"`
	DownloadRetries int           `env:"CA_DOWNLOAD_RETRIES" envDefault:"1"`

	// Readiness gating for sibling workflows.
	ReadyPollInterval time.Duration `env:"READY_POLL_INTERVAL" envDefault:"5s"`
	ReadyWaitTimeout  time.Duration `env:"READY_WAIT_TIMEOUT" envDefault:"10m"`

	// Server state registry backend: "file" (default) or "redis".
	RegistryBackend string `env:"REGISTRY_BACKEND" envDefault:"file"`
	RedisURL        string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	// Proxied backend for /server requests.
	BackendURL string `env:"BACKEND_URL" envDefault:"http://localhost:3000"`

	// Origin allow-list for the CORS policy.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// Startup maintenance gate.
	MaintenanceWaitTimeout time.Duration `env:"MAINTENANCE_WAIT_TIMEOUT" envDefault:"10m"`

	// Rate limiting for the HTTPS listeners.
	RateLimitCapacity   int           `env:"RATE_LIMIT_CAPACITY" envDefault:"100"`
	RateLimitRefillRate int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"100"`
	RateLimitInterval   time.Duration `env:"RATE_LIMIT_INTERVAL" envDefault:"1m"`

	// Logging and alerting.
	Log    logger.Config
	Notify notify.PostmarkConfig
}

// IsProduction reports whether the process runs with production framing.
// Error responses include stack traces only when this returns false.
func (a App) IsProduction() bool {
	return a.Environment == "production"
}
