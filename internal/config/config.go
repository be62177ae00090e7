// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// --- Database ---
	// Аудит-журнал пишется в PostgreSQL. Сессии в БД не хранятся никогда.
	AuditEnabled bool   `envconfig:"AUDIT_ENABLED" default:"true"`
	DBHost       string `envconfig:"DB_HOST" default:"postgres"`
	DBPort       int    `envconfig:"DB_PORT" default:"5432"`
	DBUser       string `envconfig:"DB_USER" default:"botuser"`
	DBPassword   string `envconfig:"DB_PASSWORD"`
	DBName       string `envconfig:"DB_NAME" default:"superfast"`
	DBSSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns   int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns   int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Asia/Kolkata"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Economy ---
	EconomyStartingTickets int    `envconfig:"ECONOMY_STARTING_TICKETS" default:"5"`
	EconomyWelcomeBonus    int64  `envconfig:"ECONOMY_WELCOME_BONUS" default:"10"`
	EconomyGameWinAmount   int64  `envconfig:"ECONOMY_GAME_WIN_AMOUNT" default:"1"`
	EconomyCurrencySymbol  string `envconfig:"ECONOMY_CURRENCY_SYMBOL" default:"₹"`

	// --- Wallet ---
	WalletMinAmount       int64         `envconfig:"WALLET_MIN_AMOUNT" default:"10"`
	WalletProcessingDelay time.Duration `envconfig:"WALLET_PROCESSING_DELAY" default:"1500ms"`

	// --- Trivia ---
	// Без ключа вопросы берутся из офлайн-банка каталога.
	GeminiAPIKey          string        `envconfig:"GEMINI_API_KEY"`
	GeminiModel           string        `envconfig:"GEMINI_MODEL" default:"gemini-3-flash-preview"`
	GeminiBaseURL         string        `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta"`
	TriviaQuestionTimeout time.Duration `envconfig:"TRIVIA_QUESTION_TIMEOUT" default:"10s"`
	TriviaMessageTimeout  time.Duration `envconfig:"TRIVIA_MESSAGE_TIMEOUT" default:"5s"`
	TriviaResultDelay     time.Duration `envconfig:"TRIVIA_RESULT_DELAY" default:"1500ms"`

	// --- Wheel ---
	SpinDuration time.Duration `envconfig:"SPIN_DURATION" default:"3s"`

	// --- Auth ---
	AuthMinPhoneDigits int           `envconfig:"AUTH_MIN_PHONE_DIGITS" default:"10"`
	AuthCodeLength     int           `envconfig:"AUTH_CODE_LENGTH" default:"4"`
	AuthCodeTTL        time.Duration `envconfig:"AUTH_CODE_TTL" default:"5m"`
	AuthMaxAttempts    int           `envconfig:"AUTH_MAX_ATTEMPTS" default:"3"`
	// Argon2id-хеш мастер-кода для тестировщиков (scripts/generate_hash.go)
	AuthMasterCodeHash string `envconfig:"AUTH_MASTER_CODE_HASH"`
	AuthDefaultName    string `envconfig:"AUTH_DEFAULT_NAME" default:"Player 1"`

	// --- Sessions ---
	SessionIdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`

	// --- Catalog ---
	// Пустой путь = встроенный каталог.
	CatalogPath string `envconfig:"CATALOG_PATH"`

	// --- Rate Limiting ---
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS" default:"2"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"5"`

	// --- Metrics ---
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	MetricsAddr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsDevelopment — в dev-режиме бот показывает код подтверждения прямо в чате.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Максимальная длина кода подтверждения в цифрах.
const maxAuthCodeLength = 18

func (c *Config) Validate() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.AuditEnabled {
		if c.DBPassword == "" {
			return fmt.Errorf("DB_PASSWORD обязателен при AUDIT_ENABLED=true")
		}
		if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
		}
	}
	if c.EconomyStartingTickets < 0 {
		return fmt.Errorf("ECONOMY_STARTING_TICKETS не может быть отрицательным")
	}
	if c.EconomyWelcomeBonus < 0 || c.EconomyGameWinAmount <= 0 {
		return fmt.Errorf("некорректные ECONOMY_WELCOME_BONUS/ECONOMY_GAME_WIN_AMOUNT")
	}
	if c.WalletMinAmount <= 0 {
		return fmt.Errorf("WALLET_MIN_AMOUNT должен быть > 0")
	}
	if c.AuthMinPhoneDigits <= 0 || c.AuthCodeLength <= 0 || c.AuthMaxAttempts <= 0 {
		return fmt.Errorf("некорректные AUTH_* настройки")
	}
	if c.AuthCodeLength > maxAuthCodeLength {
		return fmt.Errorf("AUTH_CODE_LENGTH не больше %d цифр", maxAuthCodeLength)
	}
	if c.SpinDuration < 0 || c.TriviaResultDelay < 0 {
		return fmt.Errorf("SPIN_DURATION/TRIVIA_RESULT_DELAY не могут быть отрицательными")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("SESSION_IDLE_TTL должен быть > 0")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS/RATE_LIMIT_BURST должны быть > 0")
	}
	return nil
}

// Load читает .env (если есть) и переменные окружения, заполняет структуру Config.
func Load() (*Config, error) {
	// .env не обязателен: в Docker переменные приходят из compose
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
