package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is built once at startup and passed by value; nothing mutates it afterwards.
type Config struct {
	Port         string `env:"PORT" envDefault:"3001"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`

	DBHost     string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"invite_bridge"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	WebOrigin string `env:"WEB_ORIGIN"`

	TelegramBotToken      string        `env:"TELEGRAM_BOT_TOKEN"`
	TelegramAPIBase       string        `env:"TELEGRAM_API_BASE" envDefault:"https://api.telegram.org"`
	TelegramChannelID     string        `env:"TELEGRAM_CHANNEL_ID"`
	TelegramWebhookSecret string        `env:"TELEGRAM_WEBHOOK_SECRET"`
	TelegramWebhookURL    string        `env:"TELEGRAM_WEBHOOK_URL"`
	InviteTTL             time.Duration `env:"INVITE_TTL" envDefault:"48h"`

	IssueAPISecret string `env:"ISSUE_API_SECRET"`

	EngageBaseURL   string `env:"ENGAGE_BASE_URL"`
	EngageAccountID string `env:"ENGAGE_ACCOUNT_ID"`
	EngageAPIToken  string `env:"ENGAGE_API_TOKEN"`
	EventIssuedName string `env:"EVENT_ISSUED_NAME" envDefault:"telegram_invite_issued"`
	EventJoinedName string `env:"EVENT_JOINED_NAME" envDefault:"telegram_channel_joined"`

	EmitTimeout time.Duration `env:"EMIT_TIMEOUT" envDefault:"10s"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"15s"`
}

// LoadEnv 读取 .env（不存在就算了，直接用进程环境变量）
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Printf("[config] no .env loaded: %v", err)
	}
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))
	cfg.TelegramAPIBase = strings.TrimRight(cfg.TelegramAPIBase, "/")
	cfg.EngageBaseURL = strings.TrimRight(cfg.EngageBaseURL, "/")
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func (c Config) Validate() error {
	var errs []error
	if c.StoreBackend != BackendPostgres && c.StoreBackend != BackendRedis {
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendRedis, c.StoreBackend))
	}
	if c.TelegramBotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN is required"))
	}
	if c.TelegramChannelID == "" {
		errs = append(errs, errors.New("TELEGRAM_CHANNEL_ID is required"))
	}
	if c.IssueAPISecret == "" {
		errs = append(errs, errors.New("ISSUE_API_SECRET is required"))
	}
	if c.InviteTTL < 0 {
		errs = append(errs, errors.New("INVITE_TTL must not be negative"))
	}
	if c.EmitTimeout <= 0 {
		errs = append(errs, errors.New("EMIT_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

// EngageEnabled 未配置投递平台时只打日志
func (c Config) EngageEnabled() bool {
	return c.EngageBaseURL != "" && c.EngageAccountID != "" && c.EngageAPIToken != ""
}
