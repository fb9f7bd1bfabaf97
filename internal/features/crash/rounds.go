// Package crash — rounds.go: хранилище активных раундов в Redis.
// Раунд изымается атомарно (GETDEL), поэтому два одновременных
// кэшаута одного раунда дадут ровно одно зачисление.
package crash

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/db/redisdb"
)

// RoundStore хранит активные раунды.
type RoundStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoundStore(client *redis.Client, ttl time.Duration) *RoundStore {
	return &RoundStore{client: client, ttl: ttl}
}

// Save сохраняет раунд с TTL.
func (s *RoundStore) Save(ctx context.Context, round *Round) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("ошибка сериализации раунда: %w", err)
	}
	key := fmt.Sprintf(redisdb.KeyCrashRound, round.ID)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения раунда: %w", err)
	}
	return nil
}

// Consume атомарно изымает раунд. Если раунд не найден (истёк,
// уже завершён или не существовал) — common.ErrRoundNotFound.
func (s *RoundStore) Consume(ctx context.Context, roundID string) (*Round, error) {
	key := fmt.Sprintf(redisdb.KeyCrashRound, roundID)
	data, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrRoundNotFound
		}
		return nil, fmt.Errorf("ошибка чтения раунда: %w", err)
	}
	return unmarshalRound(data)
}

// Peek читает раунд, не изымая его (для websocket-ленты множителя).
func (s *RoundStore) Peek(ctx context.Context, roundID string) (*Round, error) {
	key := fmt.Sprintf(redisdb.KeyCrashRound, roundID)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrRoundNotFound
		}
		return nil, fmt.Errorf("ошибка чтения раунда: %w", err)
	}
	return unmarshalRound(data)
}

func unmarshalRound(data []byte) (*Round, error) {
	var round Round
	if err := json.Unmarshal(data, &round); err != nil {
		return nil, fmt.Errorf("ошибка десериализации раунда: %w", err)
	}
	return &round, nil
}
