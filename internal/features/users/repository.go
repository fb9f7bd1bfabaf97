// Package users — repository.go отвечает за все операции с таблицами
// users и inventory_items в БД.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gifts-wheel/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetOrCreate возвращает пользователя по Telegram ID, создавая его
// при первом обращении со стартовым балансом. Стартовый баланс
// фиксируется в строке пользователя — на него опирается сверка.
// ON CONFLICT DO NOTHING + повторный SELECT закрывает гонку двух
// одновременных первых запросов (создастся ровно одна строка).
func (r *Repository) GetOrCreate(ctx context.Context, telegramID int64, username string, startingBalance int64) (*User, error) {
	if username == "" {
		username = fmt.Sprintf("User_%d", telegramID)
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (telegram_id, username, balance, starting_balance)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (telegram_id) DO NOTHING
	`, telegramID, username, startingBalance)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	return r.GetByTelegramID(ctx, telegramID)
}

// GetByTelegramID возвращает пользователя или common.ErrUserNotFound.
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, `
		SELECT id, telegram_id, username, balance, created_at, updated_at
		FROM users
		WHERE telegram_id = $1
	`, telegramID).Scan(&u.ID, &u.TelegramID, &u.Username, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return &u, nil
}

// GetByID возвращает пользователя по внутреннему id.
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := r.db.QueryRow(ctx, `
		SELECT id, telegram_id, username, balance, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.TelegramID, &u.Username, &u.Balance, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return &u, nil
}

// GetBalance возвращает текущий баланс пользователя в наноTON.
func (r *Repository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance int64
	err := r.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}
	return balance, nil
}

// GetInventory возвращает инвентарь пользователя (оставленные призы),
// новые сверху.
func (r *Repository) GetInventory(ctx context.Context, userID int64) ([]*InventoryItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, name, emoji, price, created_at
		FROM inventory_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения инвентаря: %w", err)
	}
	defer rows.Close()

	var items []*InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Emoji, &it.Price, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования инвентаря: %w", err)
		}
		items = append(items, &it)
	}
	return items, nil
}

// CountInventory возвращает количество подарков в инвентаре (для профиля в боте).
func (r *Repository) CountInventory(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM inventory_items WHERE user_id = $1`, userID,
	).Scan(&n)
	return n, err
}
