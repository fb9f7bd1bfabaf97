// Package ledger — money.go содержит единственный разрешённый способ
// изменить баланс пользователя.
//
// Обе функции работают ВНУТРИ уже открытой транзакции БД вызывающей
// стороны: фича добавляет свои строки (game, inventory, redemption, ...)
// в ту же транзакцию, и всё коммитится или откатывается целиком.
//
// Сериализация по пользователю: DebitUser берёт блокировку строки
// (SELECT ... FOR UPDATE), поэтому два одновременных списания одного
// пользователя выполняются строго по очереди и потерянных обновлений
// не бывает. CreditUser обходится атомарным UPDATE.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gifts-wheel/internal/common"
)

// DebitUser списывает amount наноTON со счёта пользователя и записывает
// транзакцию аудита. Возвращает новый баланс.
// Если средств не хватает — common.ErrInsufficientBalance, и вызывающая
// транзакция должна откатиться.
func DebitUser(ctx context.Context, tx pgx.Tx, userID int64, amount int64, txType, description string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	// Блокируем строку пользователя до конца транзакции
	var balance int64
	err := tx.QueryRow(ctx,
		`SELECT balance FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка получения баланса: %w", err)
	}

	if balance < amount {
		return 0, common.ErrInsufficientBalance
	}

	newBalance := balance - amount
	_, err = tx.Exec(ctx, `
		UPDATE users SET balance = $2, updated_at = NOW() WHERE id = $1
	`, userID, newBalance)
	if err != nil {
		return 0, fmt.Errorf("ошибка списания: %w", err)
	}

	if err := insertTransaction(ctx, tx, userID, -amount, txType, description); err != nil {
		return 0, err
	}

	return newBalance, nil
}

// CreditUser зачисляет amount наноTON на счёт пользователя и записывает
// транзакцию аудита. Возвращает новый баланс.
func CreditUser(ctx context.Context, tx pgx.Tx, userID int64, amount int64, txType, description string) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}

	var newBalance int64
	err := tx.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING balance
	`, userID, amount).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, common.ErrUserNotFound
		}
		return 0, fmt.Errorf("ошибка начисления: %w", err)
	}

	if err := insertTransaction(ctx, tx, userID, amount, txType, description); err != nil {
		return 0, err
	}

	return newBalance, nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, userID, amount int64, txType, description string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO transactions (user_id, type, amount, description)
		VALUES ($1, $2, $3, $4)
	`, userID, txType, amount, description)
	if err != nil {
		return fmt.Errorf("ошибка записи транзакции: %w", err)
	}
	return nil
}
