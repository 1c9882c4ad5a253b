package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	EmailBackendSMTP = "smtp"
	EmailBackendFile = "file"
)

type Config struct {
	Environment   string `env:"ENV" envDefault:"development"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DBDSN         string `env:"DB_DSN"`

	// DefaultPrice цена услуги для STORAGE_DRIVER=memory
	DefaultPrice int `env:"DEFAULT_PRICE" envDefault:"3000"`

	// CORSOrigins пустой список отключает CORS
	CORSOrigins []string `env:"HTTP_CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	// RateLimit запросов в минуту на пользователя, 0 без ограничения
	RateLimit int `env:"HTTP_RATE_LIMIT" envDefault:"120"`
	RateBurst int `env:"HTTP_RATE_BURST" envDefault:"20"`

	SessionDuration  time.Duration `env:"SESSION_DURATION" envDefault:"50m"`
	NonPenaltyPeriod time.Duration `env:"NON_PENALTY_PERIOD" envDefault:"12h"`
	CalendarDays     int           `env:"CALENDAR_DAYS" envDefault:"14"`
	DefaultLocale    string        `env:"DEFAULT_LOCALE" envDefault:"ru"`

	TelegramToken string `env:"TELEGRAM_TOKEN"`

	Zoom   ZoomConfig   `envPrefix:"ZOOM_"`
	Email  EmailConfig  `envPrefix:"EMAIL_"`
	Worker WorkerConfig `envPrefix:"WORKER_"`
}

type ZoomConfig struct {
	AccountID    string        `env:"ACCOUNT_ID"`
	ClientID     string        `env:"CLIENT_ID"`
	ClientSecret string        `env:"CLIENT_SECRET"`
	BaseURL      string        `env:"BASE_URL" envDefault:"https://api.zoom.us/v2"`
	TokenURL     string        `env:"TOKEN_URL" envDefault:"https://zoom.us/oauth/token"`
	Timezone     string        `env:"TIMEZONE" envDefault:"Europe/Moscow"`
	Topic        string        `env:"TOPIC" envDefault:"Консультация"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type EmailConfig struct {
	Backend  string `env:"BACKEND" envDefault:"file"`
	FilePath string `env:"FILE_PATH" envDefault:"sent_emails"`
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	User     string `env:"HOST_USER"`
	Password string `env:"HOST_PASSWORD"`
	Sender   string `env:"SENDER" envDefault:"noreply@localhost"`
}

type WorkerConfig struct {
	Concurrency int `env:"CONCURRENCY" envDefault:"4"`
	QueueSize   int `env:"QUEUE_SIZE" envDefault:"256"`
}

// Load читает .env (если файл есть) и переменные окружения
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	return Parse()
}

// Parse читает конфигурацию только из переменных окружения
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DBDSN == "" {
			return errors.New("DB_DSN is required but not set")
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.Email.Backend {
	case EmailBackendFile:
	case EmailBackendSMTP:
		if c.Email.Host == "" {
			return errors.New("EMAIL_HOST is required for smtp backend")
		}
	default:
		return fmt.Errorf("unknown EMAIL_BACKEND %q", c.Email.Backend)
	}

	if c.SessionDuration <= 0 {
		return errors.New("SESSION_DURATION must be positive")
	}
	if c.NonPenaltyPeriod <= 0 {
		return errors.New("NON_PENALTY_PERIOD must be positive")
	}
	if c.CalendarDays <= 0 {
		return errors.New("CALENDAR_DAYS must be positive")
	}
	if c.RateLimit < 0 || c.RateBurst < 0 {
		return errors.New("HTTP_RATE_LIMIT and HTTP_RATE_BURST must not be negative")
	}
	if c.RateLimit > 0 && c.RateBurst == 0 {
		return errors.New("HTTP_RATE_BURST must be positive when HTTP_RATE_LIMIT is set")
	}
	if c.Worker.Concurrency <= 0 {
		return errors.New("WORKER_CONCURRENCY must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CalendarWindow длина окна календаря специалиста
func (c *Config) CalendarWindow() time.Duration {
	return time.Duration(c.CalendarDays) * 24 * time.Hour
}

// ZoomEnabled сообщает, заданы ли учётные данные Zoom
func (c *Config) ZoomEnabled() bool {
	return c.Zoom.AccountID != "" && c.Zoom.ClientID != "" && c.Zoom.ClientSecret != ""
}
