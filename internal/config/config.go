// Package config загружает конфигурацию сервера из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Драйверы хранилища профилей.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`
	// Опорный пояс игровых суток. Неизвестный пояс: ошибка старта.
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Madrid"`

	// --- Storage ---
	StoreDriver   string `envconfig:"STORE_DRIVER" default:"file"`
	StoreFilePath string `envconfig:"STORE_FILE_PATH" default:"./data/users.json"`

	// --- Database (только для STORE_DRIVER=postgres) ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"honey"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" default:"honey"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- HTTP API ---
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":3000"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	WebTokenSecret      string        `envconfig:"WEB_TOKEN_SECRET" required:"true"`
	WebTokenTTL         time.Duration `envconfig:"WEB_TOKEN_TTL" default:"720h"`

	// --- Telegram (пустой токен отключает бота) ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	// Групповой чат, где бот тоже отвечает (0: только личка)
	HiveChatID int64 `envconfig:"HIVE_CHAT_ID" default:"0"`
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminIDsRaw       string        `envconfig:"ADMIN_IDS"`
	AdminIDs          []int64       `envconfig:"-"` // заполним вручную
	AdminPasswordHash string        `envconfig:"ADMIN_PASSWORD_HASH"`
	AdminSessionTTL   time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"24h"`
	AdminMaxFailures  int           `envconfig:"ADMIN_MAX_FAILURES" default:"3"`
	AdminLockout      time.Duration `envconfig:"ADMIN_LOCKOUT" default:"1h"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"30"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Неудачные попытки авторизации ---
	LoginFailStep       time.Duration `envconfig:"LOGIN_FAIL_STEP" default:"200ms"`
	LoginFailMaxDelay   time.Duration `envconfig:"LOGIN_FAIL_MAX_DELAY" default:"2s"`
	LoginFailWindow     time.Duration `envconfig:"LOGIN_FAIL_WINDOW" default:"10m"`
	LoginFailMaxEntries int           `envconfig:"LOGIN_FAIL_MAX_ENTRIES" default:"10000"`

	// --- Обслуживание ---
	MaintenanceSchedule string `envconfig:"MAINTENANCE_SCHEDULE" default:"@every 5m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// BotEnabled сообщает, что задан токен Telegram.
func (c *Config) BotEnabled() bool {
	return c.TelegramBotToken != ""
}

// IsAdmin сообщает, что userID есть в ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.AppTimezone == "" {
		return fmt.Errorf("APP_TIMEZONE не задан")
	}
	switch c.StoreDriver {
	case StoreFile:
		if c.StoreFilePath == "" {
			return fmt.Errorf("STORE_FILE_PATH не задан")
		}
	case StorePostgres:
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен для STORE_DRIVER=postgres")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	default:
		return fmt.Errorf("неизвестный STORE_DRIVER %q (file|postgres)", c.StoreDriver)
	}
	if len(c.WebTokenSecret) < 16 {
		return fmt.Errorf("WEB_TOKEN_SECRET должен быть не короче 16 символов")
	}
	if c.WebTokenTTL <= 0 {
		return fmt.Errorf("WEB_TOKEN_TTL должен быть > 0")
	}
	if c.BotEnabled() {
		if c.BotMaxInflight <= 0 {
			return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
		}
		if c.BotUpdateTimeoutSeconds <= 0 {
			return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
		}
	}
	if len(c.AdminIDs) > 0 && c.AdminPasswordHash == "" {
		return fmt.Errorf("ADMIN_PASSWORD_HASH обязателен, если задан ADMIN_IDS")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	if c.LoginFailStep < 0 || c.LoginFailMaxDelay < c.LoginFailStep || c.LoginFailWindow <= 0 {
		return fmt.Errorf("некорректные LOGIN_FAIL_*")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
