package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	App struct {
		Name     string `yaml:"name"`
		Port     string `yaml:"port"`
		Env      string `yaml:"env"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Database struct {
		Driver        string `yaml:"driver"`
		URL           string `yaml:"url"`
		Host          string `yaml:"host"`
		Port          string `yaml:"port"`
		User          string `yaml:"user"`
		Password      string `yaml:"password"`
		Name          string `yaml:"name"`
		SSLMode       string `yaml:"sslmode"`
		MongoURI      string `yaml:"mongo_uri"`
		MongoDatabase string `yaml:"mongo_database"`
	} `yaml:"database"`

	JWT struct {
		Secret string        `yaml:"secret"`
		TTL    time.Duration `yaml:"ttl"`
		Issuer string        `yaml:"issuer"`
	} `yaml:"jwt"`

	Checkout struct {
		PlatformFee string        `yaml:"platform_fee"`
		MaxRetries  int           `yaml:"max_retries"`
		LockTimeout time.Duration `yaml:"lock_timeout"`
	} `yaml:"checkout"`

	Notifier struct {
		URL     string        `yaml:"url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"notifier"`

	UPI struct {
		VPA       string `yaml:"vpa"`
		PayeeName string `yaml:"payee_name"`
	} `yaml:"upi"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"admin"`

	Relay struct {
		Port             string `yaml:"port"`
		TwilioAccountSID string `yaml:"twilio_account_sid"`
		TwilioAuthToken  string `yaml:"twilio_auth_token"`
		WhatsAppFrom     string `yaml:"whatsapp_from"`
		ShopkeeperPhone  string `yaml:"shopkeeper_phone"`
	} `yaml:"relay"`
}

// Load reads .env (if present), then the YAML file named by CONFIG_FILE (if set),
// then lets environment variables override individual keys.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config usable for local development.
func Default() *Config {
	cfg := &Config{}
	cfg.App.Name = "quickgrocery"
	cfg.App.Port = "3000"
	cfg.App.Env = "development"
	cfg.App.LogLevel = "info"

	cfg.Database.Driver = DriverPostgres
	cfg.Database.Host = "localhost"
	cfg.Database.Port = "5432"
	cfg.Database.SSLMode = "disable"
	cfg.Database.MongoDatabase = "quickgrocery"

	cfg.JWT.Secret = "change-me-in-production"
	cfg.JWT.TTL = 24 * time.Hour
	cfg.JWT.Issuer = "quickgrocery"

	cfg.Checkout.PlatformFee = "0"
	cfg.Checkout.MaxRetries = 1
	cfg.Checkout.LockTimeout = 5 * time.Second

	cfg.Notifier.URL = "http://localhost:5000/notify"
	cfg.Notifier.Timeout = 10 * time.Second

	cfg.UPI.PayeeName = "QuickGrocery"

	cfg.Admin.Email = "admin@quickgrocery.local"
	cfg.Admin.Name = "Store Admin"

	cfg.Relay.Port = "5000"
	return cfg
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(c); err != nil {
		return fmt.Errorf("invalid config file: %w", err)
	}
	return nil
}

// applyEnv overrides keys from the environment. Malformed numbers and durations are errors.
func (c *Config) applyEnv() error {
	setString(&c.App.Name, "APP_NAME")
	setString(&c.App.Port, "PORT")
	setString(&c.App.Env, "APP_ENV")
	setString(&c.App.LogLevel, "LOG_LEVEL")

	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.URL, "DATABASE_URL")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Port, "DB_PORT")
	setString(&c.Database.User, "DB_USER")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Database.Name, "DB_NAME")
	setString(&c.Database.SSLMode, "DB_SSLMODE")
	setString(&c.Database.MongoURI, "MONGO_URI")
	setString(&c.Database.MongoDatabase, "MONGO_DATABASE")

	setString(&c.JWT.Secret, "JWT_SECRET")
	var errs []error
	errs = append(errs, setDuration(&c.JWT.TTL, "JWT_TTL"))

	setString(&c.Checkout.PlatformFee, "PLATFORM_FEE")
	errs = append(errs,
		setInt(&c.Checkout.MaxRetries, "CHECKOUT_MAX_RETRIES"),
		setDuration(&c.Checkout.LockTimeout, "CHECKOUT_LOCK_TIMEOUT"),
	)

	setString(&c.Notifier.URL, "NOTIFIER_URL")
	errs = append(errs, setDuration(&c.Notifier.Timeout, "NOTIFIER_TIMEOUT"))

	setString(&c.UPI.VPA, "UPI_VPA")
	setString(&c.UPI.PayeeName, "UPI_PAYEE_NAME")

	setString(&c.Admin.Email, "ADMIN_EMAIL")
	setString(&c.Admin.Password, "ADMIN_PASSWORD")
	setString(&c.Admin.Name, "ADMIN_NAME")

	setString(&c.Relay.Port, "RELAY_PORT")
	setString(&c.Relay.TwilioAccountSID, "TWILIO_ACCOUNT_SID")
	setString(&c.Relay.TwilioAuthToken, "TWILIO_AUTH_TOKEN")
	setString(&c.Relay.WhatsAppFrom, "TWILIO_WHATSAPP_FROM")
	setString(&c.Relay.ShopkeeperPhone, "SHOPKEEPER_PHONE")

	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverMongo:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.Driver == DriverMongo && c.Database.MongoURI == "" {
		return errors.New("MONGO_URI is required for the mongo driver")
	}
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Checkout.MaxRetries < 0 {
		return errors.New("checkout max_retries must not be negative")
	}
	if _, err := c.PlatformFee(); err != nil {
		return err
	}
	return nil
}

// PlatformFee parses the configured flat fee.
func (c *Config) PlatformFee() (decimal.Decimal, error) {
	if strings.TrimSpace(c.Checkout.PlatformFee) == "" {
		return decimal.Zero, nil
	}
	fee, err := decimal.NewFromString(c.Checkout.PlatformFee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid platform fee %q: %w", c.Checkout.PlatformFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("platform fee must not be negative")
	}
	if !fee.Equal(fee.Round(2)) {
		return decimal.Zero, fmt.Errorf("platform fee %q has more than 2 decimal places", c.Checkout.PlatformFee)
	}
	return fee, nil
}

// PostgresDSN prefers DATABASE_URL and falls back to the discrete fields.
func (c *Config) PostgresDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=Asia/Kolkata",
		c.Database.Host,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.Port,
		c.Database.SSLMode,
	)
}

// MigrationURL is the pgx5:// form golang-migrate expects.
func (c *Config) MigrationURL() string {
	if c.Database.URL != "" {
		u := c.Database.URL
		for _, prefix := range []string{"postgresql://", "postgres://"} {
			if strings.HasPrefix(u, prefix) {
				return "pgx5://" + strings.TrimPrefix(u, prefix)
			}
		}
		return u
	}
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: expected an integer", key, v)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: expected a duration like 5s", key, v)
	}
	*dst = d
	return nil
}
