// Package crash — repository.go выполняет денежные операции краша.
package crash

import (
	"context"
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

// DebitBet атомарно списывает ставку с записью транзакции аудита.
// Возвращает новый баланс.
func (r *Repository) DebitBet(ctx context.Context, userID, bet int64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	newBalance, err := ledger.DebitUser(ctx, tx, userID, bet, ledger.TxTypeCrashBet, "Crash bet")
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита: %w", err)
	}
	return newBalance, nil
}

// SettleWin зачисляет выплату и записывает игру в одной транзакции.
// Возвращает новый баланс.
func (r *Repository) SettleWin(ctx context.Context, userID, bet, payout int64, multiplier float64) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	newBalance, err := ledger.CreditUser(ctx, tx, userID, payout,
		ledger.TxTypeCrashWin, fmt.Sprintf("Crash win: %.2fx", multiplier))
	if err != nil {
		return 0, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO games (user_id, type, bet, result, multiplier)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, ledger.GameTypeCrash, bet, payout, multiplier)
	if err != nil {
		return 0, fmt.Errorf("ошибка записи игры: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ошибка коммита: %w", err)
	}
	return newBalance, nil
}

// SettleLoss записывает проигранный раунд. Ставка уже списана на старте,
// баланс не меняется.
func (r *Repository) SettleLoss(ctx context.Context, userID, bet int64, crashPoint float64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO games (user_id, type, bet, result, multiplier)
		VALUES ($1, $2, $3, 0, $4)
	`, userID, ledger.GameTypeCrash, bet, crashPoint)
	if err != nil {
		return fmt.Errorf("ошибка записи игры: %w", err)
	}
	return nil
}
