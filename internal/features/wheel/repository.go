// Package wheel — repository.go выполняет денежные операции колеса.
// Каждая операция — одна транзакция БД: списание/начисление через
// ledger и сопутствующие строки (game, inventory) коммитятся вместе.
package wheel

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gifts-wheel/internal/features/ledger"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Spin атомарно списывает цену спина, записывает игру и транзакцию
// аудита. Возвращает новый баланс.
// Блокировка строки пользователя внутри ledger.DebitUser гарантирует,
// что два одновременных спина при балансе на один спин дадут ровно
// один успех.
func (r *Repository) Spin(ctx context.Context, userID int64, cost int64, prize Prize) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	newBalance, err := ledger.DebitUser(ctx, tx, userID, cost, ledger.TxTypeSpin, "Spin wheel")
	if err != nil {
		return 0, err
	}

	prizeJSON, err := json.Marshal(prize)
	if err != nil {
		return 0, fmt.Errorf("ошибка сериализации приза: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO games (user_id, type, bet, result, prize)
		VALUES ($1, $2, $3, 0, $4)
	`, userID, ledger.GameTypeWheel, cost, prizeJSON)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи игры: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита: %w", err)
	}
	return newBalance, nil
}

// KeepPrize кладёт приз в инвентарь. Баланс не меняется.
func (r *Repository) KeepPrize(ctx context.Context, userID int64, prize Prize) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO inventory_items (user_id, name, emoji, price)
		VALUES ($1, $2, $3, $4)
	`, userID, prize.Name, prize.Emoji, prize.Price)
	if err != nil {
		return fmt.Errorf("ошибка добавления в инвентарь: %w", err)
	}
	return nil
}

// SellPrize зачисляет цену приза и записывает транзакцию аудита.
// Возвращает новый баланс.
func (r *Repository) SellPrize(ctx context.Context, userID int64, prize Prize) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var newBalance int64
	if prize.Price > 0 {
		newBalance, err = ledger.CreditUser(ctx, tx, userID, prize.Price,
			ledger.TxTypePrizeSell, fmt.Sprintf("Sold %s", prize.Name))
		if err != nil {
			return 0, err
		}
	} else {
		if err := tx.QueryRow(ctx,
			`SELECT balance FROM users WHERE id = $1`, userID,
		).Scan(&newBalance); err != nil {
			return 0, fmt.Errorf("ошибка получения баланса: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита: %w", err)
	}
	return newBalance, nil
}

// SellInventoryItem продаёт приз из инвентаря: удаление предмета и
// начисление его цены коммитятся вместе. Условный DELETE защищает от
// двойной продажи одного предмета.
func (r *Repository) SellInventoryItem(ctx context.Context, userID, itemID int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var name string
	var price int64
	err = tx.QueryRow(ctx, `
		DELETE FROM inventory_items
		WHERE id = $1 AND user_id = $2
		RETURNING name, price
	`, itemID, userID).Scan(&name, &price)
	if err != nil {
		return 0, fmt.Errorf("предмет не найден: %w", err)
	}

	var newBalance int64
	if price > 0 {
		newBalance, err = ledger.CreditUser(ctx, tx, userID, price,
			ledger.TxTypePrizeSell, fmt.Sprintf("Sold %s", name))
		if err != nil {
			return 0, err
		}
	} else {
		// Призы с нулевой ценой продаются «в никуда», баланс не меняется
		if err := tx.QueryRow(ctx,
			`SELECT balance FROM users WHERE id = $1`, userID,
		).Scan(&newBalance); err != nil {
			return 0, fmt.Errorf("ошибка получения баланса: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита: %w", err)
	}
	return newBalance, nil
}
