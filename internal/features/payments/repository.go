// Package payments — repository.go: операции с таблицами deposits
// и withdrawals. Денежные операции проходят через ledger в одной
// транзакции БД с изменением статуса.
package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
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

// CreateDeposit сохраняет новый ожидающий депозит.
func (r *Repository) CreateDeposit(ctx context.Context, userID int64, depositID, address string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO deposits (user_id, deposit_id, address, status)
		VALUES ($1, $2, $3, $4)
	`, userID, depositID, address, DepositStatusPending)
	if err != nil {
		return fmt.Errorf("ошибка создания депозита: %w", err)
	}
	return nil
}

// GetDeposit возвращает депозит по токену или common.ErrDepositNotFound.
func (r *Repository) GetDeposit(ctx context.Context, depositID string) (*Deposit, error) {
	var d Deposit
	err := r.db.QueryRow(ctx, `
		SELECT id, user_id, deposit_id, address, status, amount, tx_hash, created_at, updated_at
		FROM deposits
		WHERE deposit_id = $1
	`, depositID).Scan(&d.ID, &d.UserID, &d.DepositID, &d.Address, &d.Status,
		&d.Amount, &d.TxHash, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrDepositNotFound
		}
		return nil, fmt.Errorf("ошибка получения депозита: %w", err)
	}
	return &d, nil
}

// CompleteDeposit помечает депозит завершённым и зачисляет сумму —
// в одной транзакции БД. Условный UPDATE по status='pending' даёт
// дисциплину одного писателя на депозит: из двух одновременных
// завершений пройдёт ровно одно, второе вернёт completed=false
// без начисления.
func (r *Repository) CompleteDeposit(ctx context.Context, depositID string, amount int64, txHash string) (completed bool, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID int64
	err = tx.QueryRow(ctx, `
		UPDATE deposits
		SET status = $2, amount = $3, tx_hash = $4, updated_at = NOW()
		WHERE deposit_id = $1 AND status = $5
		RETURNING user_id
	`, depositID, DepositStatusCompleted, amount, txHash, DepositStatusPending).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Уже завершён параллельным вызовом — не начисляем повторно
			return false, nil
		}
		return false, fmt.Errorf("ошибка завершения депозита: %w", err)
	}

	if _, err := ledger.CreditUser(ctx, tx, userID, amount,
		ledger.TxTypeDeposit, fmt.Sprintf("TON deposit %s", depositID)); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("ошибка коммита: %w", err)
	}
	return true, nil
}

// ListPendingDeposits возвращает ожидающие депозиты не старше maxAge
// (для фоновой проверки).
func (r *Repository) ListPendingDeposits(ctx context.Context, maxAge time.Duration) ([]*Deposit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, deposit_id, address, status, amount, tx_hash, created_at, updated_at
		FROM deposits
		WHERE status = $1 AND created_at >= $2
		ORDER BY created_at
	`, DepositStatusPending, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return nil, fmt.Errorf("ошибка получения депозитов: %w", err)
	}
	defer rows.Close()

	var deposits []*Deposit
	for rows.Next() {
		var d Deposit
		if err := rows.Scan(&d.ID, &d.UserID, &d.DepositID, &d.Address, &d.Status,
			&d.Amount, &d.TxHash, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования депозита: %w", err)
		}
		deposits = append(deposits, &d)
	}
	return deposits, nil
}

// CreateWithdrawal списывает сумму и создаёт заявку на вывод — в одной
// транзакции БД (debit-then-fulfill). Возвращает id заявки и новый баланс.
func (r *Repository) CreateWithdrawal(ctx context.Context, userID int64, address string, amount int64) (int64, int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	newBalance, err := ledger.DebitUser(ctx, tx, userID, amount,
		ledger.TxTypeWithdraw, fmt.Sprintf("Withdraw to %s", common.Truncate(address, 8)))
	if err != nil {
		return 0, 0, err
	}

	var withdrawalID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO withdrawals (user_id, address, amount, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, address, amount, WithdrawalStatusPending).Scan(&withdrawalID)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка создания вывода: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, fmt.Errorf("ошибка коммита: %w", err)
	}
	return withdrawalID, newBalance, nil
}

// ListPendingWithdrawals возвращает неотправленные выводы (для админки).
func (r *Repository) ListPendingWithdrawals(ctx context.Context) ([]*Withdrawal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, address, amount, status, created_at, updated_at
		FROM withdrawals
		WHERE status = $1
		ORDER BY created_at
	`, WithdrawalStatusPending)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения выводов: %w", err)
	}
	defer rows.Close()

	var ws []*Withdrawal
	for rows.Next() {
		var w Withdrawal
		if err := rows.Scan(&w.ID, &w.UserID, &w.Address, &w.Amount, &w.Status, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования вывода: %w", err)
		}
		ws = append(ws, &w)
	}
	return ws, nil
}

// MarkWithdrawalSent помечает вывод отправленным (ручное подтверждение
// оператора). Условный UPDATE: уже отправленный вывод не трогаем.
func (r *Repository) MarkWithdrawalSent(ctx context.Context, withdrawalID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE withdrawals SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`, withdrawalID, WithdrawalStatusSent, WithdrawalStatusPending)
	if err != nil {
		return false, fmt.Errorf("ошибка обновления вывода: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
