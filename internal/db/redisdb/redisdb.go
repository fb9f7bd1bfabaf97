// Package redisdb управляет подключением к Redis.
// Redis хранит короткоживущее состояние: активные раунды краша,
// ожидающие решения призы колеса и счётчики rate limit.
// Долговременные данные (балансы, транзакции) живут только в PostgreSQL.
package redisdb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"gifts-wheel/internal/config"
)

// Ключи и TTL. Формат ключей фиксирован — по ним же ищут отладочные скрипты.
const (
	KeyCrashRound   = "crash:round:%s"    // crash:round:<roundId>
	KeyPendingPrize = "wheel:pending:%d"  // wheel:pending:<userId>
	KeyRateLimit    = "ratelimit:%d:%s"   // ratelimit:<userId>:<path>

	TTLPendingPrize = 10 * time.Minute
)

// NewClient создаёт клиент Redis и проверяет доступность сервера.
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis недоступен: %w", err)
	}

	log.Info("Подключение к Redis установлено")
	return client, nil
}
