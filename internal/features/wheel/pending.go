// Package wheel — pending.go: хранилище «ожидающего» приза в Redis.
//
// Результат спина определяется только сервером. Чтобы keep/sell не
// доверяли клиентскому payload, выпавший приз кладётся сюда под ключ
// пользователя и забирается ровно один раз (GETDEL) при решении
// оставить или продать. TTL ограничивает время на решение.
package wheel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/db/redisdb"
)

// PendingStore хранит нерешённые призы спинов.
type PendingStore struct {
	client *redis.Client
}

func NewPendingStore(client *redis.Client) *PendingStore {
	return &PendingStore{client: client}
}

// Put сохраняет приз последнего спина пользователя.
// Повторный спин до решения перезаписывает предыдущий приз.
func (s *PendingStore) Put(ctx context.Context, userID int64, prize Prize) error {
	data, err := json.Marshal(prize)
	if err != nil {
		return fmt.Errorf("ошибка сериализации приза: %w", err)
	}
	key := fmt.Sprintf(redisdb.KeyPendingPrize, userID)
	if err := s.client.Set(ctx, key, data, redisdb.TTLPendingPrize).Err(); err != nil {
		return fmt.Errorf("ошибка сохранения приза: %w", err)
	}
	return nil
}

// Take атомарно забирает ожидающий приз (GETDEL): два одновременных
// keep/sell не смогут применить один приз дважды.
// Если приза нет — common.ErrNoPendingPrize.
func (s *PendingStore) Take(ctx context.Context, userID int64) (*Prize, error) {
	key := fmt.Sprintf(redisdb.KeyPendingPrize, userID)
	data, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrNoPendingPrize
		}
		return nil, fmt.Errorf("ошибка чтения приза: %w", err)
	}

	var prize Prize
	if err := json.Unmarshal(data, &prize); err != nil {
		return nil, fmt.Errorf("ошибка десериализации приза: %w", err)
	}
	return &prize, nil
}
