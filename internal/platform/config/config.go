package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config agrupa toda la configuración del proceso. Se carga una vez en main
// y se pasa explícitamente a cada componente.
type Config struct {
	Env     string `validate:"oneof=development staging production"`
	AppName string
	HTTP    HTTPConfig

	LogLevel  string `validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `validate:"omitempty,oneof=text json"`

	Storage  StorageConfig
	Telegram TelegramConfig
	Notify   NotifyConfig

	SessionBackend string `validate:"oneof=memory store"`
}

type HTTPConfig struct {
	Addr         string        `validate:"required"`
	ReadTimeout  time.Duration `validate:"gt=0"`
	WriteTimeout time.Duration `validate:"gt=0"`
}

type StorageConfig struct {
	Backend string `validate:"oneof=memory postgres redis"`

	PostgresDSN string `validate:"required_if=Backend postgres"`

	RedisAddr     string `validate:"required_if=Backend redis"`
	RedisPassword string
	RedisDB       int    `validate:"gte=0"`
	KeyPrefix     string

	RetryAttempts int           `validate:"gte=1"`
	RetryBackoff  time.Duration `validate:"gt=0"`
}

type TelegramConfig struct {
	Token         string
	APIURL        string `validate:"required,url"`
	Mode          string `validate:"oneof=polling webhook"`
	WebhookSecret string `validate:"required_if=Mode webhook"`
	PollTimeout   time.Duration `validate:"gt=0"`
}

type NotifyConfig struct {
	Concurrency int           `validate:"gte=1"`
	Timeout     time.Duration `validate:"gt=0"`
}

var validate = validator.New()

// Load lee .env.local y .env (si existen; no pisan variables ya definidas),
// aplica defaults y valida.
func Load() (Config, error) {
	for _, f := range []string{".env.local", ".env"} {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv construye la config desde un lookup arbitrario (os.Getenv en prod,
// un mapa en tests). No valida.
func FromEnv(getenv func(string) string) (Config, error) {
	r := reader{getenv: getenv}

	cfg := Config{
		Env:     r.text("APP_ENV", "development"),
		AppName: r.text("APP_NAME", "medibot"),
		HTTP: HTTPConfig{
			Addr:         r.text("HTTP_ADDR", ":8080"),
			ReadTimeout:  r.duration("HTTP_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: r.duration("HTTP_WRITE_TIMEOUT", 10*time.Second),
		},
		LogLevel:  strings.ToLower(r.text("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(r.text("LOG_FORMAT", "text")),
		Storage: StorageConfig{
			Backend:       strings.ToLower(r.text("STORAGE_BACKEND", "memory")),
			PostgresDSN:   r.text("DB_DSN", ""),
			RedisAddr:     r.text("REDIS_ADDR", ""),
			RedisPassword: r.text("REDIS_PASSWORD", ""),
			RedisDB:       r.integer("REDIS_DB", 0),
			KeyPrefix:     r.text("KEY_PREFIX", "medibot:"),
			RetryAttempts: r.integer("STORE_RETRY_ATTEMPTS", 3),
			RetryBackoff:  r.duration("STORE_RETRY_BACKOFF", 100*time.Millisecond),
		},
		Telegram: TelegramConfig{
			Token:         r.text("TELEGRAM_TOKEN", ""),
			APIURL:        r.text("TELEGRAM_API_URL", "https://api.telegram.org"),
			Mode:          strings.ToLower(r.text("TRANSPORT_MODE", "polling")),
			WebhookSecret: r.text("WEBHOOK_SECRET", ""),
			PollTimeout:   r.duration("TELEGRAM_POLL_TIMEOUT", 30*time.Second),
		},
		Notify: NotifyConfig{
			Concurrency: r.integer("NOTIFY_CONCURRENCY", 4),
			Timeout:     r.duration("NOTIFY_TIMEOUT", 5*time.Second),
		},
		SessionBackend: strings.ToLower(r.text("SESSION_BACKEND", "memory")),
	}

	if len(r.errs) > 0 {
		return Config{}, fmt.Errorf("config: %s", strings.Join(r.errs, "; "))
	}
	return cfg, nil
}

// Validate aplica las reglas declaradas en los tags.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// RequireTelegram se usa en `serve`; `migrate` no necesita token.
func (c Config) RequireTelegram() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return fmt.Errorf("config: TELEGRAM_TOKEN is required")
	}
	return nil
}

type reader struct {
	getenv func(string) string
	errs   []string
}

func (r *reader) text(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: not an integer", key))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Sprintf("%s: not a duration", key))
		return def
	}
	return d
}
