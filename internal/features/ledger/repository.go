// Package ledger — repository.go: чтение истории транзакций, игр
// и сверка балансов.
package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// GetTransactions возвращает последние limit транзакций пользователя.
func (r *Repository) GetTransactions(ctx context.Context, userID int64, limit int) ([]*Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, amount, description, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения транзакций: %w", err)
	}
	defer rows.Close()

	var txs []*Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования транзакции: %w", err)
		}
		txs = append(txs, &t)
	}
	return txs, nil
}

// GetGameStats возвращает количество игр по типам (для /stats в боте).
func (r *Repository) GetGameStats(ctx context.Context, userID int64) (*GameStats, error) {
	var s GameStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE type = $2),
		       COUNT(*) FILTER (WHERE type = $3)
		FROM games
		WHERE user_id = $1
	`, userID, GameTypeWheel, GameTypeCrash).Scan(&s.TotalGames, &s.WheelGames, &s.CrashGames)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения статистики игр: %w", err)
	}
	return &s, nil
}

// FindDrift сверяет балансы всех пользователей с суммой их транзакций.
// Возвращает только расхождения. Депозиты и промокоды входят в сумму
// транзакций, поэтому ожидание простое:
// balance == users.starting_balance + SUM(transactions.amount).
// Стартовый баланс зафиксирован в строке пользователя при создании:
// смена STARTING_BALANCE_TON не влияет на сверку старых аккаунтов.
func (r *Repository) FindDrift(ctx context.Context) ([]*DriftReport, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.telegram_id, u.balance,
		       u.starting_balance + COALESCE(SUM(t.amount), 0) AS expected
		FROM users u
		LEFT JOIN transactions t ON t.user_id = u.id
		GROUP BY u.id, u.telegram_id, u.balance, u.starting_balance
		HAVING u.balance <> u.starting_balance + COALESCE(SUM(t.amount), 0)
	`)
	if err != nil {
		return nil, fmt.Errorf("ошибка сверки балансов: %w", err)
	}
	defer rows.Close()

	var reports []*DriftReport
	for rows.Next() {
		var d DriftReport
		if err := rows.Scan(&d.UserID, &d.TelegramID, &d.Balance, &d.Expected); err != nil {
			return nil, fmt.Errorf("ошибка сканирования сверки: %w", err)
		}
		d.Drift = d.Balance - d.Expected
		reports = append(reports, &d)
	}
	return reports, nil
}
