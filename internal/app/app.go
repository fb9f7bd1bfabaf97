// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, Redis, репозитории, сервисы,
// обработчики и собирает бота, HTTP-сервер и планировщик.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/bot"
	"gifts-wheel/internal/config"
	"gifts-wheel/internal/db/postgres"
	"gifts-wheel/internal/db/redisdb"
	"gifts-wheel/internal/features/admin"
	"gifts-wheel/internal/features/crash"
	"gifts-wheel/internal/features/ledger"
	"gifts-wheel/internal/features/payments"
	"gifts-wheel/internal/features/promo"
	"gifts-wheel/internal/features/users"
	"gifts-wheel/internal/features/wheel"
	"gifts-wheel/internal/jobs"
	"gifts-wheel/internal/server"
	"gifts-wheel/internal/ton"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Server    *server.Server
	Scheduler *jobs.Scheduler
	DB        *pgxpool.Pool
	Redis     *redis.Client
	BotAPI    *tgbotapi.BotAPI
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Redis ===
	redisClient, err := redisdb.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к Redis: %w", err)
	}

	// === 3. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 4. Платёжный шлюз TON ===
	tonClient := ton.NewClient(cfg.TONAPIEndpoint, cfg.TONAPIKey, cfg.TONTestnet)

	// === 5. Репозитории ===
	userRepo := users.NewRepository(pool)
	ledgerRepo := ledger.NewRepository(pool)
	wheelRepo := wheel.NewRepository(pool)
	crashRepo := crash.NewRepository(pool)
	promoRepo := promo.NewRepository(pool)
	paymentRepo := payments.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 6. Генераторы и Redis-хранилища ===
	wheelGen, err := wheel.NewGenerator(wheel.DefaultPrizes, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка таблицы призов: %w", err)
	}
	crashGen := crash.NewGenerator(nil)
	pendingPrizes := wheel.NewPendingStore(redisClient)
	crashRounds := crash.NewRoundStore(redisClient, cfg.CrashRoundTTL)

	// === 7. Сервисы ===
	userService := users.NewService(userRepo, cfg)
	wheelService := wheel.NewService(wheelRepo, userRepo, wheelGen, pendingPrizes, cfg)
	crashService := crash.NewService(crashRepo, userRepo, crashRounds, crashGen, cfg)
	promoService := promo.NewService(promoRepo, userRepo, cfg)
	paymentService := payments.NewService(paymentRepo, userRepo, tonClient, cfg)
	adminService := admin.NewService(adminRepo, paymentService, ledgerRepo, cfg)

	// === 8. Обработчики и бот ===
	adminHandler := admin.NewHandler(adminService, userRepo, botAPI)
	b := bot.New(botAPI, cfg, userService, ledgerRepo, adminHandler)
	// Уведомления о выплатах идут через основной цикл бота
	adminHandler.SetNotifier(b.SendMessageToUser)

	// === 9. HTTP API ===
	srv := server.New(cfg, redisClient, userService, wheelService, crashService,
		promoService, paymentService, ledgerRepo)

	// === 10. Планировщик задач ===
	scheduler := jobs.NewScheduler(paymentService, ledgerRepo, cfg)

	return &App{
		Bot:       b,
		Server:    srv,
		Scheduler: scheduler,
		DB:        pool,
		Redis:     redisClient,
		BotAPI:    botAPI,
	}, nil
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002Ledger},
		{3, migration003Inventory},
		{4, migration004Promo},
		{5, migration005Payments},
		{6, migration006Admin},
		{7, migration007StartingBalance},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.
// Все денежные поля — BIGINT в наноTON (1 TON = 10^9).

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    telegram_id BIGINT UNIQUE NOT NULL,
    username VARCHAR(255) NOT NULL,
    balance BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_telegram_id ON users(telegram_id);
`

var migration002Ledger = `
CREATE TABLE IF NOT EXISTS transactions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    type VARCHAR(50) NOT NULL,
    amount BIGINT NOT NULL,
    description TEXT,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC);

CREATE TABLE IF NOT EXISTS games (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    type VARCHAR(20) NOT NULL,
    bet BIGINT NOT NULL DEFAULT 0,
    result BIGINT NOT NULL DEFAULT 0,
    prize JSONB,
    multiplier DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_games_user_id ON games(user_id);
`

var migration003Inventory = `
CREATE TABLE IF NOT EXISTS inventory_items (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    name VARCHAR(255) NOT NULL,
    emoji VARCHAR(16) NOT NULL,
    price BIGINT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_inventory_user_id ON inventory_items(user_id);
`

var migration004Promo = `
CREATE TABLE IF NOT EXISTS promo_redemptions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    code VARCHAR(64) NOT NULL,
    amount BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT NOW(),
    UNIQUE (user_id, code)
);
`

var migration005Payments = `
CREATE TABLE IF NOT EXISTS deposits (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    deposit_id VARCHAR(64) UNIQUE NOT NULL,
    address VARCHAR(128) NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    amount BIGINT NOT NULL DEFAULT 0,
    tx_hash VARCHAR(128) NOT NULL DEFAULT '',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_deposits_status ON deposits(status);

CREATE TABLE IF NOT EXISTS withdrawals (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(id),
    address VARCHAR(128) NOT NULL,
    amount BIGINT NOT NULL,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT NOW(),
    updated_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);
`

// Стартовый баланс фиксируется в строке пользователя, чтобы смена
// STARTING_BALANCE_TON не ломала сверку старых аккаунтов. Существующие
// строки созданы при дефолте 5 TON.
var migration007StartingBalance = `
ALTER TABLE users ADD COLUMN IF NOT EXISTS starting_balance BIGINT NOT NULL DEFAULT 0;
UPDATE users SET starting_balance = 5000000000 WHERE starting_balance = 0;
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(64) NOT NULL,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user ON admin_sessions(user_id);

CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_admin_attempts_user ON admin_login_attempts(user_id, attempt_time);
`
