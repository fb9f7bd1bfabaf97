// Package promo — repository.go: атомарное применение промокода.
package promo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gifts-wheel/internal/common"
	"gifts-wheel/internal/features/ledger"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Redeem записывает использование промокода и зачисляет бонус в ОДНОЙ
// транзакции БД. Вставка с ON CONFLICT DO NOTHING по (user_id, code):
// если строка не вставилась — код уже использован, и начисления не
// будет. Две одновременные попытки одного кода дадут ровно одно
// начисление.
func (r *Repository) Redeem(ctx context.Context, userID int64, code string, amount int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO promo_redemptions (user_id, code, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, code) DO NOTHING
	`, userID, code, amount)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи использования промокода: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, common.ErrPromoAlreadyRedeemed
	}

	newBalance, err := ledger.CreditUser(ctx, tx, userID, amount,
		ledger.TxTypePromo, fmt.Sprintf("Promo code: %s", code))
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита: %w", err)
	}
	return newBalance, nil
}
