package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Environment   string `mapstructure:"ENV"`
	DBDSN         string `mapstructure:"DB_DSN"`
	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	HTTPAddr      string `mapstructure:"HTTP_ADDR"`

	TelegramToken  string `mapstructure:"TELEGRAM_TOKEN"`
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	SendgridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	AppName        string `mapstructure:"APP_NAME"`

	Timezone              string `mapstructure:"TIMEZONE"`
	Currency              string `mapstructure:"CURRENCY"`
	StrictTeacherCalendar bool   `mapstructure:"STRICT_TEACHER_CALENDAR"`
	SlotWeeksAhead        int    `mapstructure:"SLOT_WEEKS_AHEAD"`
	RateLimitPerMinute    int    `mapstructure:"RATE_LIMIT_PER_MINUTE"`
	CORSAllowedOrigins    string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	// TrustedProxiesList адреса прокси, которым доверяем X-Forwarded-For
	TrustedProxiesList    string `mapstructure:"TRUSTED_PROXIES"`
	// PaymentCallbackSecret общий секрет с платёжным шлюзом, пустой отключает callback
	PaymentCallbackSecret string `mapstructure:"PAYMENT_CALLBACK_SECRET"`

	location *time.Location
}

var defaults = map[string]any{
	"ENV":                     "development",
	"DB_DSN":                  "",
	"STORAGE_DRIVER":          DriverPostgres,
	"HTTP_ADDR":               ":8080",
	"TELEGRAM_TOKEN":          "",
	"REDIS_ADDR":              "",
	"SENDGRID_API_KEY":        "",
	"MAIL_FROM":               "noreply@localhost",
	"APP_NAME":                "Tutor Scheduler",
	"TIMEZONE":                "UTC",
	"CURRENCY":                "₽",
	"STRICT_TEACHER_CALENDAR": true,
	"SLOT_WEEKS_AHEAD":        4,
	"RATE_LIMIT_PER_MINUTE":   60,
	"CORS_ALLOWED_ORIGINS":    "*",
	"TRUSTED_PROXIES":         "",
	"PAYMENT_CALLBACK_SECRET": "",
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

// FromViper собирает и проверяет конфиг из уже настроенного viper
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	if cfg.SlotWeeksAhead <= 0 {
		return nil, fmt.Errorf("SLOT_WEEKS_AHEAD must be positive, got %d", cfg.SlotWeeksAhead)
	}
	if cfg.RateLimitPerMinute <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitPerMinute)
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// Location часовой пояс, в котором считается "сегодня"
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

// TrustedProxies пустой список: заголовки прокси игнорируются, IP берётся из соединения
func (c *Config) TrustedProxies() []string {
	return splitList(c.TrustedProxiesList)
}

func splitList(raw string) []string {
	var items []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
