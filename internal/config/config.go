// Package config загружает настройки сервисов из YAML-файла и переменных окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"
	// Встроенная база часовых поясов, чтобы TIME_ZONE работал в минимальных образах.
	_ "time/tzdata"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config хранит все настройки сервисов клуба. Создается один раз в main
// и передается дальше явно.
type Config struct {
	SecretKey      string   `yaml:"secret_key" env:"SECRET_KEY" env-required:"true"`
	Debug          bool     `yaml:"debug" env:"DEBUG" env-default:"false"`
	AllowedHosts   []string `yaml:"allowed_hosts" env:"ALLOWED_HOSTS" env-separator:" " env-default:"*"`
	DatabaseURL    string   `yaml:"database_url" env:"DATABASE_URL" env-required:"true"`
	TimeZone       string   `yaml:"time_zone" env:"TIME_ZONE" env-default:"Australia/Brisbane"`
	MigrationsPath string   `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`

	HTTPServer HTTPServer      `yaml:"http_server"`
	JWTToken   JWTToken        `yaml:"jwt_token"`
	Stripe     Stripe          `yaml:"stripe"`
	Redis      RedisConnection `yaml:"redis"`
	RabbitMQ   RabbitMQ        `yaml:"rabbitmq"`
	SMTP       SMTP            `yaml:"smtp"`

	location *time.Location
}

// HTTPServer описывает настройки HTTP-сервера API.
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8000"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"15s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	RateLimit   float64       `yaml:"rate_limit" env:"HTTP_RATE_LIMIT" env-default:"10"`
	RateBurst   int           `yaml:"rate_burst" env:"HTTP_RATE_BURST" env-default:"20"`
}

// JWTToken описывает токены аккаунтов. Они подписываются Config.SecretKey.
type JWTToken struct {
	TokenTTL time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"24h"`
}

// Stripe описывает настройки клиента платежного шлюза.
type Stripe struct {
	SecretKey     string        `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	WebhookSecret string        `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string        `yaml:"currency" env:"STRIPE_CURRENCY" env-default:"aud"`
	Timeout       time.Duration `yaml:"timeout" env:"STRIPE_TIMEOUT" env-default:"10s"`
	APIURL        string        `yaml:"api_url" env:"STRIPE_API_URL"`
}

// RedisConnection описывает кэш сезонов. Пустой Address отключает кэш.
type RedisConnection struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	MaxRetries  int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env:"REDIS_TIMEOUT" env-default:"2s"`
	SeasonTTL   time.Duration `yaml:"season_ttl" env:"REDIS_SEASON_TTL" env-default:"5m"`
}

// RabbitMQ описывает платежные уведомления. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries    int           `yaml:"retries" env:"RABBITMQ_RETRIES" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
}

// SMTP описывает почтовый сервер отправщика уведомлений.
type SMTP struct {
	Host       string `yaml:"host" env:"SMTP_HOST"`
	Port       string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User       string `yaml:"user" env:"SMTP_USER"`
	Password   string `yaml:"password" env:"SMTP_PASSWORD"`
	AdminEmail string `yaml:"admin_email" env:"SMTP_ADMIN_EMAIL"`
}

// Load читает YAML-файл по пути path, если он задан, затем окружение,
// которое всегда имеет приоритет.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает локальный .env, если он есть, затем конфигурацию из
// CONFIG_PATH и окружения. При ошибке завершает процесс.
func MustLoad() *Config {
	_ = godotenv.Load()

	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return fmt.Errorf("time_zone %q: %w", c.TimeZone, err)
	}
	c.location = loc

	if len(c.SecretKey) < 16 {
		return errors.New("secret_key must be at least 16 characters")
	}
	if c.JWTToken.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}
	if c.Stripe.SecretKey == "" {
		return errors.New("stripe secret_key is required")
	}
	if c.Stripe.WebhookSecret == "" {
		return errors.New("stripe webhook_secret is required")
	}
	if c.Stripe.Timeout <= 0 {
		return errors.New("stripe timeout must be positive")
	}
	return nil
}

// Location возвращает часовой пояс клуба.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// String выводит конфигурацию со скрытыми секретами.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Debug: %t\n"+
			"AllowedHosts: %v\n"+
			"TimeZone: %s\n"+
			"DatabaseURL: %s\n"+
			"HTTPServer: %s (timeout %s, idle %s)\n"+
			"TokenTTL: %s\n"+
			"Stripe: currency=%s timeout=%s secret_key=%s webhook_secret=%s\n"+
			"Redis: %s db=%d\n"+
			"RabbitMQ: %s\n"+
			"SMTP: %s:%s user=%s\n",
		c.Debug,
		c.AllowedHosts,
		c.TimeZone,
		mask(c.DatabaseURL),
		c.HTTPServer.Address, c.HTTPServer.Timeout, c.HTTPServer.IdleTimeout,
		c.JWTToken.TokenTTL,
		c.Stripe.Currency, c.Stripe.Timeout, mask(c.Stripe.SecretKey), mask(c.Stripe.WebhookSecret),
		c.Redis.Address, c.Redis.DB,
		mask(c.RabbitMQ.URL),
		c.SMTP.Host, c.SMTP.Port, c.SMTP.User,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
