package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/Domenick1991/spacebooking/internal/logger"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	GRPC      GRPCConfig      `yaml:"grpc"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Booking   BookingConfig   `yaml:"booking"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Email     EmailConfig     `yaml:"email"`
	Auth      AuthConfig      `yaml:"auth"`
	Log       logger.Config   `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type HTTPConfig struct {
	Address        string `yaml:"address"`
	GatewayAddress string `yaml:"gateway_address"`
	SwaggerDir     string `yaml:"swagger_dir"`
}

type GRPCConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	PaymentsTopic      string   `yaml:"payments_topic"`
	GroupID            string   `yaml:"group_id"`
}

// Enabled reports whether a broker is configured. Without one, events are dropped and
// payment notifications are reconciled inline.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type BookingConfig struct {
	TaxDestination       string  `yaml:"tax_destination"`
	DefaultTaxPercent    float64 `yaml:"default_tax_percent"`
	PackagesCacheTTLSecs int     `yaml:"packages_cache_ttl_seconds"`
}

type PaymentsConfig struct {
	KeyID             string `yaml:"key_id"`
	KeySecret         string `yaml:"key_secret"`
	WebhookSecret     string `yaml:"webhook_secret"`
	CheckoutURL       string `yaml:"checkout_url"`
	DefaultCurrency   string `yaml:"default_currency"`
	BreakerMaxFails   uint32 `yaml:"breaker_max_failures"`
	BreakerTimeoutSec int    `yaml:"breaker_timeout_seconds"`
	DedupeTTLSecs     int    `yaml:"dedupe_ttl_seconds"`
}

type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

func (e EmailConfig) Enabled() bool {
	return e.Host != ""
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	Webhook string `yaml:"webhook"`
}

// LoadConfig reads the YAML file at path, loads an optional .env next to the process, lets
// secret environment variables override the file and fills in defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()

	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"DATABASE_PASSWORD":       &c.Database.Password,
		"RAZORPAY_KEY_ID":         &c.Payments.KeyID,
		"RAZORPAY_KEY_SECRET":     &c.Payments.KeySecret,
		"RAZORPAY_WEBHOOK_SECRET": &c.Payments.WebhookSecret,
		"SMTP_PASSWORD":           &c.Email.Password,
		"JWT_SECRET":              &c.Auth.JWTSecret,
	}
	for name, field := range overrides {
		if v, ok := os.LookupEnv(name); ok {
			*field = v
		}
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.GRPC.Address == "" {
		c.GRPC.Address = ":9090"
	}
	if c.Booking.TaxDestination == "" {
		c.Booking.TaxDestination = "space-domain"
	}
	if c.Booking.DefaultTaxPercent == 0 {
		c.Booking.DefaultTaxPercent = 5
	}
	if c.Booking.PackagesCacheTTLSecs == 0 {
		c.Booking.PackagesCacheTTLSecs = 60
	}
	if c.Payments.DefaultCurrency == "" {
		c.Payments.DefaultCurrency = "BRL"
	}
	if c.Payments.BreakerMaxFails == 0 {
		c.Payments.BreakerMaxFails = 5
	}
	if c.Payments.BreakerTimeoutSec == 0 {
		c.Payments.BreakerTimeoutSec = 30
	}
	if c.Payments.DedupeTTLSecs == 0 {
		c.Payments.DedupeTTLSecs = 86400
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "spacebooking-worker"
	}
	if c.RateLimit.Webhook == "" {
		c.RateLimit.Webhook = "60-M"
	}
}
