package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	ModeDebug   = "debug"
	ModeRelease = "release"

	ServiceGateway    = "gateway"
	ServiceIdentity   = "identity"
	ServiceTables     = "tables"
	ServiceCatalog    = "catalog"
	ServiceStandalone = "standalone"
)

type Config struct {
	Mode string `yaml:"mode"`
	Port string `yaml:"port"`

	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	JWT struct {
		Secret           string        `yaml:"secret"`
		AccessTTL        time.Duration `yaml:"access_ttl"`
		RefreshTTL       time.Duration `yaml:"refresh_ttl"`
		RefreshThreshold time.Duration `yaml:"refresh_threshold"`
	} `yaml:"jwt"`

	QR struct {
		Secret         string `yaml:"secret"`
		PublicBaseURL  string `yaml:"public_base_url"`
		CustomerAppURL string `yaml:"customer_app_url"`
		ScanErrorURL   string `yaml:"scan_error_url"`
		ImageSize      int    `yaml:"image_size"`
	} `yaml:"qr"`

	Services struct {
		IdentityURL    string        `yaml:"identity_url"`
		TablesURL      string        `yaml:"tables_url"`
		CatalogURL     string        `yaml:"catalog_url"`
		IdentityAPIKey string        `yaml:"identity_api_key"`
		TablesAPIKey   string        `yaml:"tables_api_key"`
		CatalogAPIKey  string        `yaml:"catalog_api_key"`
		Timeout        time.Duration `yaml:"timeout"`
	} `yaml:"services"`

	RateLimit struct {
		RPS   float64       `yaml:"rps"`
		Burst int           `yaml:"burst"`
		TTL   time.Duration `yaml:"ttl"`
	} `yaml:"rate_limit"`

	CORSOrigins []string `yaml:"cors_origins"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load reads .env (if present), then the YAML file at path (if any), then
// environment overrides, and finally fills defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (cfg *Config) applyEnv() error {
	setString(&cfg.Mode, "APP_MODE")
	setString(&cfg.Port, "PORT")
	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.DSN, "DB_DSN")
	setString(&cfg.JWT.Secret, "JWT_SECRET")
	setString(&cfg.QR.Secret, "QR_SECRET")
	setString(&cfg.QR.PublicBaseURL, "PUBLIC_BASE_URL")
	setString(&cfg.QR.CustomerAppURL, "CUSTOMER_APP_URL")
	setString(&cfg.QR.ScanErrorURL, "SCAN_ERROR_URL")
	setString(&cfg.Services.IdentityURL, "IDENTITY_URL")
	setString(&cfg.Services.TablesURL, "TABLES_URL")
	setString(&cfg.Services.CatalogURL, "CATALOG_URL")
	setString(&cfg.Services.IdentityAPIKey, "IDENTITY_API_KEY")
	setString(&cfg.Services.TablesAPIKey, "TABLES_API_KEY")
	setString(&cfg.Services.CatalogAPIKey, "CATALOG_API_KEY")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	durations := map[string]*time.Duration{
		"JWT_ACCESS_TTL":        &cfg.JWT.AccessTTL,
		"JWT_REFRESH_TTL":       &cfg.JWT.RefreshTTL,
		"JWT_REFRESH_THRESHOLD": &cfg.JWT.RefreshThreshold,
		"SERVICE_TIMEOUT":       &cfg.Services.Timeout,
		"RATE_LIMIT_TTL":        &cfg.RateLimit.TTL,
	}
	for key, target := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*target = d
		}
	}

	if v := os.Getenv("QR_IMAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid QR_IMAGE_SIZE: %w", err)
		}
		cfg.QR.ImageSize = n
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimit.RPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimit.Burst = n
	}
	return nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Mode == "" {
		cfg.Mode = ModeDebug
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.DSN = "restaurant.db"
	}
	if cfg.JWT.AccessTTL == 0 {
		cfg.JWT.AccessTTL = 15 * time.Minute
	}
	if cfg.JWT.RefreshTTL == 0 {
		cfg.JWT.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.JWT.RefreshThreshold == 0 {
		cfg.JWT.RefreshThreshold = 2 * time.Minute
	}
	if cfg.QR.PublicBaseURL == "" {
		cfg.QR.PublicBaseURL = "http://localhost:" + cfg.Port
	}
	if cfg.QR.CustomerAppURL == "" {
		cfg.QR.CustomerAppURL = "http://localhost:3000"
	}
	if cfg.QR.ScanErrorURL == "" {
		cfg.QR.ScanErrorURL = strings.TrimRight(cfg.QR.CustomerAppURL, "/") + "/scan-error"
	}
	if cfg.QR.ImageSize == 0 {
		cfg.QR.ImageSize = 512
	}
	if cfg.Services.IdentityURL == "" {
		cfg.Services.IdentityURL = "http://localhost:8081"
	}
	if cfg.Services.TablesURL == "" {
		cfg.Services.TablesURL = "http://localhost:8082"
	}
	if cfg.Services.CatalogURL == "" {
		cfg.Services.CatalogURL = "http://localhost:8083"
	}
	if cfg.Services.Timeout == 0 {
		cfg.Services.Timeout = 5 * time.Second
	}
	if cfg.RateLimit.RPS == 0 {
		cfg.RateLimit.RPS = 10
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 20
	}
	if cfg.RateLimit.TTL == 0 {
		cfg.RateLimit.TTL = 10 * time.Minute
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (cfg *Config) IsRelease() bool {
	return cfg.Mode == ModeRelease
}

// Validate refuses to start a service without the secrets it depends on.
func (cfg *Config) Validate(service string) error {
	var missing []string
	need := func(value, name string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	switch service {
	case ServiceGateway:
		need(cfg.Services.IdentityAPIKey, "IDENTITY_API_KEY")
		need(cfg.Services.TablesAPIKey, "TABLES_API_KEY")
		need(cfg.Services.CatalogAPIKey, "CATALOG_API_KEY")
	case ServiceIdentity:
		need(cfg.JWT.Secret, "JWT_SECRET")
		need(cfg.Services.IdentityAPIKey, "IDENTITY_API_KEY")
	case ServiceTables:
		need(cfg.QR.Secret, "QR_SECRET")
		need(cfg.Services.TablesAPIKey, "TABLES_API_KEY")
	case ServiceCatalog:
		need(cfg.Services.CatalogAPIKey, "CATALOG_API_KEY")
	case ServiceStandalone:
		need(cfg.JWT.Secret, "JWT_SECRET")
		need(cfg.QR.Secret, "QR_SECRET")
		need(cfg.Services.IdentityAPIKey, "IDENTITY_API_KEY")
		need(cfg.Services.TablesAPIKey, "TABLES_API_KEY")
		need(cfg.Services.CatalogAPIKey, "CATALOG_API_KEY")
	default:
		return fmt.Errorf("unknown service %q", service)
	}

	if cfg.Mode != ModeDebug && cfg.Mode != ModeRelease {
		return fmt.Errorf("invalid APP_MODE %q", cfg.Mode)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func setString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
