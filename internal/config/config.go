// Package config загружает конфигурацию бэкенда из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"gifts-wheel/internal/common"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// URL мини-приложения (кнопка «Играть» в боте)
	WebAppURL   string  `envconfig:"WEB_APP_URL" default:"https://wheelsgifts.netlify.app"`
	AdminIDsRaw string  `envconfig:"ADMIN_IDS" default:""`
	AdminIDs    []int64 `envconfig:"-"` // заполняется вручную из AdminIDsRaw

	// --- HTTP ---
	HTTPPort int `envconfig:"HTTP_PORT" default:"3001"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт — "postgres" (имя сервиса в docker-compose).
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"casino"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"gifts_wheel"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Redis (состояние раундов краша, ожидающие призы, rate limit) ---
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"redis:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" default:""`

	// --- Economy ---
	// Стартовый баланс нового пользователя и цена одного спина, в TON.
	StartingBalanceTON float64 `envconfig:"STARTING_BALANCE_TON" default:"5.0"`
	SpinCostTON        float64 `envconfig:"SPIN_COST_TON" default:"1.0"`

	// --- Promo ---
	// Таблица промокодов: "CODE:amountTON,CODE:amountTON,..."
	PromoCodesRaw string           `envconfig:"PROMO_CODES" default:"FREEEFORADMIN:100,GIFT1:1,GIFT5:5,BONUS:2"`
	PromoCodes    map[string]int64 `envconfig:"-"` // код → сумма в наноTON

	// --- Crash ---
	// Скорость роста множителя (в единицах множителя за секунду)
	CrashGrowthRate float64 `envconfig:"CRASH_GROWTH_RATE" default:"0.2"`
	// Максимальная ставка, в TON (0 = без ограничения)
	CrashMaxBetTON float64 `envconfig:"CRASH_MAX_BET_TON" default:"0"`
	// Время жизни незавершённого раунда в Redis
	CrashRoundTTL time.Duration `envconfig:"CRASH_ROUND_TTL" default:"10m"`

	// --- TON ---
	TONAPIEndpoint string `envconfig:"TON_API_ENDPOINT" default:"https://toncenter.com/api/v2"`
	TONAPIKey      string `envconfig:"TON_API_KEY" default:""`
	TONTestnet     bool   `envconfig:"TON_TESTNET" default:"false"`
	// Адрес кошелька-получателя депозитов
	TONDepositAddress string `envconfig:"TON_DEPOSIT_ADDRESS" required:"true"`
	// Минимальная сумма депозита, в TON
	TONMinDepositTON float64 `envconfig:"TON_MIN_DEPOSIT_TON" default:"0.1"`
	// Как часто фоновая задача проверяет ожидающие депозиты
	DepositSweepSpec string `envconfig:"DEPOSIT_SWEEP_SPEC" default:"*/2 * * * *"`
	// Старше этого возраста депозиты фоновой задачей не проверяются
	DepositSweepMaxAge time.Duration `envconfig:"DEPOSIT_SWEEP_MAX_AGE" default:"24h"`

	// --- Rate Limiting (HTTP) ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"30"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// StartingBalance — стартовый баланс в наноTON.
func (c *Config) StartingBalance() int64 { return common.ToNano(c.StartingBalanceTON) }

// SpinCost — цена спина в наноTON.
func (c *Config) SpinCost() int64 { return common.ToNano(c.SpinCostTON) }

// MinDeposit — минимальный депозит в наноTON.
func (c *Config) MinDeposit() int64 { return common.ToNano(c.TONMinDepositTON) }

// IsAdmin проверяет, входит ли пользователь в список администраторов.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.HTTPPort <= 0 {
		return fmt.Errorf("HTTP_PORT должен быть > 0")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.SpinCostTON <= 0 {
		return fmt.Errorf("SPIN_COST_TON должен быть > 0")
	}
	if c.CrashGrowthRate <= 0 {
		return fmt.Errorf("CRASH_GROWTH_RATE должен быть > 0")
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

	codes, err := ParsePromoCodes(cfg.PromoCodesRaw)
	if err != nil {
		return nil, fmt.Errorf("PROMO_CODES parse: %w", err)
	}
	cfg.PromoCodes = codes

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParsePromoCodes разбирает таблицу промокодов из строки "CODE:amount,...".
// Суммы задаются в TON, возвращаются в наноTON. Коды приводятся
// к верхнему регистру.
func ParsePromoCodes(s string) (map[string]int64, error) {
	out := make(map[string]int64)
	s = strings.TrimSpace(s)
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("некорректная пара %q (ожидается CODE:amount)", pair)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil || amount <= 0 {
			return nil, fmt.Errorf("некорректная сумма в паре %q", pair)
		}
		out[common.NormalizeCode(parts[0])] = common.ToNano(amount)
	}
	return out, nil
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
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
